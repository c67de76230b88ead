package track

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/flarebyte/stagetrack/internal/layout"
	"github.com/flarebyte/stagetrack/internal/store"
	"github.com/flarebyte/stagetrack/internal/table"
)

// Descriptor is one declared option of a class. It holds no per-instance
// state: every read and write resolves storage through the node.
type Descriptor interface {
	Attr() string
	Kind() Kind
	// Default returns the value written on fresh construction.
	Default() (any, bool)

	validate() error
	load(n *Node) (any, error)
	save(n *Node, v any) error
}

// OptionSetting customizes a declared option.
type OptionSetting func(*descriptor)

// Default sets the value written when a stage is constructed.
func Default(v any) OptionSetting {
	return func(d *descriptor) {
		d.def = v
		d.hasDefault = true
	}
}

// Cache selects the cached or uncached variant of outs, metrics and plots.
func Cache(enabled bool) OptionSetting {
	return func(d *descriptor) { d.cache = &enabled }
}

// Persist keeps an outs path across reruns.
func Persist() OptionSetting {
	return func(d *descriptor) { d.persist = true }
}

type descriptor struct {
	attr       string
	base       Kind
	kind       Kind
	def        any
	hasDefault bool
	cache      *bool
	persist    bool
}

func newDescriptor(attr string, base Kind, settings []OptionSetting) descriptor {
	d := descriptor{attr: attr, base: base, kind: base}
	for _, s := range settings {
		s(&d)
	}
	return d
}

func (d *descriptor) Attr() string { return d.attr }
func (d *descriptor) Kind() Kind   { return d.kind }

func (d *descriptor) Default() (any, bool) { return d.def, d.hasDefault }

func (d *descriptor) validate() error {
	if d.attr == "" {
		return errors.New("option attribute must not be empty")
	}
	if d.cache != nil && d.base != layout.Outs && d.base != layout.Metrics && d.base != layout.Plots {
		return fmt.Errorf("%s option %q: cache flag is only supported for outs, metrics and plots", d.base, d.attr)
	}
	if d.persist && d.base != layout.Outs {
		return fmt.Errorf("%s option %q: persist is only supported for outs", d.base, d.attr)
	}
	if d.persist && d.cache != nil && !*d.cache {
		return fmt.Errorf("outs option %q: persist can not be combined with cache(false)", d.attr)
	}
	return nil
}

// Params declares a parameter stored in the internals store.
func Params(attr string, settings ...OptionSetting) Descriptor {
	return &storeOption{descriptor: newDescriptor(attr, layout.Params, settings)}
}

// Deps declares a dependency: paths, or references to other stages.
func Deps(attr string, settings ...OptionSetting) Descriptor {
	return &storeOption{descriptor: newDescriptor(attr, layout.Deps, settings)}
}

// Outs declares an output path. Cache(false) and Persist select the
// outs_no_cache and outs_persistent kinds.
func Outs(attr string, settings ...OptionSetting) Descriptor {
	d := newDescriptor(attr, layout.Outs, settings)
	switch {
	case d.persist:
		d.kind = layout.OutsPersistent
	case d.cache != nil && !*d.cache:
		d.kind = layout.OutsNoCache
	}
	return &storeOption{descriptor: d}
}

// Metrics declares a metrics table. Metrics are uncached unless Cache(true).
func Metrics(attr string, settings ...OptionSetting) Descriptor {
	d := newDescriptor(attr, layout.Metrics, settings)
	d.kind = layout.MetricsNoCache
	if d.cache != nil && *d.cache {
		d.kind = layout.Metrics
	}
	return &tableOption{descriptor: d}
}

// Plots declares a plots table. Plots are cached unless Cache(false).
func Plots(attr string, settings ...OptionSetting) Descriptor {
	d := newDescriptor(attr, layout.Plots, settings)
	if d.cache != nil && !*d.cache {
		d.kind = layout.PlotsNoCache
	}
	return &tableOption{descriptor: d}
}

// Result declares a value produced by the stage's run and kept in its result file.
func Result(attr string, settings ...OptionSetting) Descriptor {
	return &resultOption{descriptor: newDescriptor(attr, layout.Result, settings)}
}

// storeOption keeps params, deps and outs values in the internals store.
type storeOption struct {
	descriptor
}

func (o *storeOption) load(n *Node) (any, error) {
	tree, err := n.project.internals.Value(n.id.key(), string(o.kind), o.attr)
	if err != nil {
		return nil, err
	}
	return n.project.codec.Deserialize(tree)
}

func (o *storeOption) save(n *Node, v any) error {
	persist, err := n.lc.CheckParamWrite()
	if err != nil || !persist {
		return err
	}
	tree, err := n.project.encode(v)
	if err != nil {
		return err
	}
	return n.project.internals.MergeOption(n.id.key(), string(o.kind), map[string]any{o.attr: tree})
}

// resultOption buffers values during run; they reach the result file when run ends.
type resultOption struct {
	descriptor
}

func (o *resultOption) validate() error {
	if err := o.descriptor.validate(); err != nil {
		return err
	}
	if o.hasDefault {
		return fmt.Errorf("result option %q can not have a default", o.attr)
	}
	return nil
}

func (o *resultOption) load(n *Node) (any, error) {
	if tree, ok := n.results[o.attr]; ok {
		return n.project.codec.Deserialize(tree)
	}
	tree, err := store.ResultValue(n.abs(n.resultFile()), o.attr)
	if err != nil {
		return nil, err
	}
	return n.project.codec.Deserialize(tree)
}

func (o *resultOption) save(n *Node, v any) error {
	persist, err := n.lc.CheckResultWrite()
	if err != nil || !persist {
		return err
	}
	tree, err := n.project.encode(v)
	if err != nil {
		return err
	}
	n.results[o.attr] = tree
	return nil
}

// tableOption keeps metrics and plots as CSV files under the nodes directory.
type tableOption struct {
	descriptor
}

func (o *tableOption) validate() error {
	if err := o.descriptor.validate(); err != nil {
		return err
	}
	if o.hasDefault {
		return fmt.Errorf("%s option %q can not have a default", o.base, o.attr)
	}
	return nil
}

func (o *tableOption) path(n *Node) (string, error) {
	rel, err := n.project.layout.AttrPath(n.id.StageName(), n.id.ID, o.kind, o.attr)
	if err != nil {
		return "", err
	}
	return n.abs(rel), nil
}

func (o *tableOption) load(n *Node) (any, error) {
	p, err := o.path(n)
	if err != nil {
		return nil, err
	}
	t, err := table.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %s.%s: %w", o.kind, n.id.StageName(), o.attr, ErrNotAvailable)
	}
	return t, err
}

func (o *tableOption) save(n *Node, v any) error {
	persist, err := n.lc.CheckResultWrite()
	if err != nil || !persist {
		return err
	}
	t, ok := v.(*table.Table)
	if !ok {
		return fmt.Errorf("%s option %q expects a table, got %T", o.kind, o.attr, v)
	}
	p, err := o.path(n)
	if err != nil {
		return err
	}
	return table.Write(p, t)
}
