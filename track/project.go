package track

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/flarebyte/stagetrack/internal/config"
	"github.com/flarebyte/stagetrack/internal/dvc"
	"github.com/flarebyte/stagetrack/internal/gitrepo"
	"github.com/flarebyte/stagetrack/internal/layout"
	"github.com/flarebyte/stagetrack/internal/lifecycle"
	"github.com/flarebyte/stagetrack/internal/serial"
	"github.com/flarebyte/stagetrack/internal/store"
)

// ToolRunner invokes the external pipeline tool.
type ToolRunner interface {
	Run(ctx context.Context, args []string) error
}

// Project binds stage classes to one project directory.
type Project struct {
	root      string
	cfg       config.Config
	layout    layout.Config
	internals *store.Internals
	codec     *serial.Codec
	registry  *Registry
	runner    ToolRunner
	logger    *log.Logger
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithLogger routes diagnostics to l.
func WithLogger(l *log.Logger) ProjectOption {
	return func(p *Project) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRunner replaces the tool runner.
func WithRunner(r ToolRunner) ProjectOption {
	return func(p *Project) { p.runner = r }
}

// WithConverter registers an extra value converter.
func WithConverter(c Converter) ProjectOption {
	return func(p *Project) { p.codec.Register(c) }
}

// NewProject returns a project rooted at root.
func NewProject(root string, cfg config.Config, opts ...ProjectOption) *Project {
	p := &Project{
		root:      root,
		cfg:       cfg,
		layout:    layout.Config{OutsDir: cfg.Dirs.Outs, ParamsDir: cfg.Dirs.Params, NodesDir: cfg.Dirs.Nodes},
		internals: store.NewInternals(filepath.Join(root, cfg.InternalsFile)),
		codec:     serial.NewCodec(stageConverter{}),
		registry:  NewRegistry(),
		logger:    log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(p)
	}
	if p.runner == nil {
		p.runner = dvc.NewRunner(runnerOptions(root, cfg.Tool))
	}
	return p
}

func runnerOptions(root string, t config.Tool) dvc.Options {
	o := dvc.Options{
		Program:          t.Program,
		Dir:              root,
		Env:              t.Env,
		Timeout:          t.Timeout(),
		KillProcessGroup: t.KillProcessGroup,
		CaptureMaxBytes:  t.Capture.MaxBytes,
	}
	if t.Capture.Stdout {
		o.Stdout = os.Stdout
	}
	if t.Capture.Stderr {
		o.Stderr = os.Stderr
	}
	return o
}

// Open finds the project enclosing dir and loads its configuration.
func Open(dir string, opts ...ProjectOption) (*Project, error) {
	root, err := gitrepo.ProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadDir(root)
	if err != nil {
		return nil, err
	}
	p := NewProject(root, cfg, opts...)
	if gitrepo.Ignored(root, cfg.InternalsFile) {
		p.logger.Printf("warning: %s is ignored by git, stage parameters will not be versioned", cfg.InternalsFile)
	}
	return p, nil
}

// Root returns the project directory.
func (p *Project) Root() string { return p.root }

// Config returns the resolved configuration.
func (p *Project) Config() config.Config { return p.cfg }

// Logger returns the project logger.
func (p *Project) Logger() *log.Logger { return p.logger }

// Registry returns the class registry.
func (p *Project) Registry() *Registry { return p.registry }

// Register adds classes to the registry.
func (p *Project) Register(classes ...*Class) error {
	for _, c := range classes {
		if err := p.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// StageOption selects the stage instance a class is constructed as.
type StageOption func(*Identity)

// WithName names the stage; it defaults to the class name.
func WithName(name string) StageOption {
	return func(i *Identity) { i.Name = name }
}

// WithID selects a numbered instance; it defaults to 0.
func WithID(id int) StageOption {
	return func(i *Identity) { i.ID = id }
}

// New constructs a fresh stage of c. Option defaults are written first,
// then the class's init function runs with args.
func (p *Project) New(c *Class, args Args, opts ...StageOption) (*Node, error) {
	n := p.newNode(c, false, opts)
	if err := n.lc.BeginInit(); err != nil {
		return nil, err
	}
	for _, d := range c.def.Options {
		if v, ok := d.Default(); ok {
			if err := n.Set(d.Attr(), v); err != nil {
				return nil, err
			}
		}
	}
	if err := n.finishInit(args); err != nil {
		return nil, err
	}
	return n, nil
}

// Load reconstructs a stored stage of c with its parameters locked.
func (p *Project) Load(c *Class, opts ...StageOption) (*Node, error) {
	n := p.newNode(c, true, opts)
	if err := n.lc.BeginInit(); err != nil {
		return nil, err
	}
	if err := n.finishInit(Args{}); err != nil {
		return nil, err
	}
	return n, nil
}

// LoadRef loads the stage ref points at.
func (p *Project) LoadRef(ref OutputRef) (*Node, error) {
	c, err := p.registry.Lookup(ref.Stage.Module, ref.Stage.Class)
	if err != nil {
		return nil, err
	}
	return p.Load(c, WithName(ref.Stage.StageName()), WithID(ref.Stage.ID))
}

// Resolve returns the value ref points at: the referenced attribute, or the
// loaded node for a whole-stage reference.
func (p *Project) Resolve(ref OutputRef) (any, error) {
	n, err := p.LoadRef(ref)
	if err != nil {
		return nil, err
	}
	if ref.Attribute == "" {
		return n, nil
	}
	return n.Get(ref.Attribute)
}

func (p *Project) newNode(c *Class, load bool, opts []StageOption) *Node {
	id := Identity{Module: c.module, Class: c.name}
	for _, o := range opts {
		o(&id)
	}
	if id.Name == "" {
		id.Name = c.name
	}
	return &Node{
		project: p,
		class:   c,
		id:      id,
		lc:      lifecycle.New(load),
		results: map[string]any{},
	}
}

// encode serializes v and checks encoding/json accepts the tree.
func (p *Project) encode(v any) (any, error) {
	tree, err := p.codec.Serialize(v)
	if err != nil {
		return nil, err
	}
	if err := serial.Validate(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// checkDepRefs rejects whole-stage references to classes without results.
// References to classes missing from the registry are checked at registration.
func (p *Project) checkDepRefs(v any) error {
	switch x := v.(type) {
	case literal:
		return p.checkDepRefs(x.v)
	case *Node:
		if !x.class.HasResult() {
			return fmt.Errorf("stage %s has no results", x.id.StageName())
		}
	case OutputRef:
		if x.Attribute != "" {
			return nil
		}
		if c, err := p.registry.Lookup(x.Stage.Module, x.Stage.Class); err == nil && !c.HasResult() {
			return fmt.Errorf("stage %s has no results", x.Stage.StageName())
		}
	case []any:
		for _, it := range x {
			if err := p.checkDepRefs(it); err != nil {
				return err
			}
		}
	}
	return nil
}

// refPath returns the file a dependency on ref resolves to.
func (p *Project) refPath(ref OutputRef) (string, error) {
	c, err := p.registry.Lookup(ref.Stage.Module, ref.Stage.Class)
	if err != nil {
		return "", err
	}
	name, id := ref.Stage.StageName(), ref.Stage.ID
	if ref.Attribute == "" {
		if !c.HasResult() {
			return "", fmt.Errorf("stage %s has no results", name)
		}
		return p.layout.ResultFile(name, id), nil
	}
	d, ok := c.Option(ref.Attribute)
	if !ok {
		return "", fmt.Errorf("%s: %w %q", name, ErrUnknownOption, ref.Attribute)
	}
	switch d.Kind() {
	case layout.Result:
		return p.layout.ResultFile(name, id), nil
	case layout.Deps:
		return "", fmt.Errorf("%s.%s: a dependency is not an output", name, ref.Attribute)
	}
	return p.layout.AttrPath(name, id, d.Kind(), ref.Attribute)
}

// StageInfo is the stored state of one stage instance.
type StageInfo struct {
	Name    string
	ID      int
	Options map[string]any
	Results map[string]any
}

// StoredStages lists every stage instance in the internals store, sorted
// by name then id. Values are the raw serialized trees.
func (p *Project) StoredStages() ([]StageInfo, error) {
	keys, err := p.internals.Stages()
	if err != nil {
		return nil, err
	}
	out := make([]StageInfo, 0, len(keys))
	for _, k := range keys {
		info, err := p.StoredStage(k.Name, k.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// StoredStage returns the stored state of stage name with id.
func (p *Project) StoredStage(name string, id int) (StageInfo, error) {
	opts, err := p.internals.Stage(store.StageKey{Name: name, ID: id})
	if err != nil {
		return StageInfo{}, err
	}
	res, err := store.ReadResults(filepath.Join(p.root, filepath.FromSlash(p.layout.ResultFile(name, id))))
	if err != nil {
		return StageInfo{}, err
	}
	return StageInfo{Name: name, ID: id, Options: opts, Results: res}, nil
}
