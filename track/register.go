package track

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/flarebyte/stagetrack/internal/layout"
	"github.com/flarebyte/stagetrack/internal/store"
)

// Path returns the project-relative file backing attr.
func (n *Node) Path(attr string) (string, error) {
	d, err := n.option(attr)
	if err != nil {
		return "", err
	}
	if d.Kind() == layout.Result {
		return n.resultFile(), nil
	}
	return n.project.layout.AttrPath(n.id.StageName(), n.id.ID, d.Kind(), attr)
}

// Command returns the command the tool runs to execute this stage.
func (n *Node) Command() []string {
	program := n.project.cfg.Stage.Program
	if program == "" {
		program = os.Args[0]
	}
	return []string{
		program, "exec",
		"--module", n.id.Module,
		"--class", n.id.Class,
		"--name", n.id.StageName(),
		"--id", strconv.Itoa(n.id.ID),
	}
}

// Arguments returns the option arguments of the registration: alternating
// kind flags and paths in canonical kind order.
func (n *Node) Arguments() ([]string, error) {
	s, err := n.layoutStage()
	if err != nil {
		return nil, err
	}
	return n.project.layout.Arguments(s)
}

// Argv returns the complete tool arguments registering this stage.
func (n *Node) Argv(opts CallOptions) ([]string, error) {
	args, err := n.Arguments()
	if err != nil {
		return nil, err
	}
	return n.registration(opts, args).Argv(), nil
}

func (n *Node) registration(opts CallOptions, args []string) layout.Registration {
	r := layout.Registration{
		Stage:         layout.ToolStageName(n.id.StageName(), n.id.ID),
		Force:         opts.Force,
		Exec:          opts.Exec,
		AlwaysChanged: opts.AlwaysChanged,
		Options:       args,
		Command:       n.Command(),
	}
	if opts.Slurm {
		r.Slurm = n.project.cfg.Slurm.N
	}
	return r
}

// layoutStage collects the entries that contribute to the arguments.
// Params, deps and outs contribute once a value is stored; tables always do.
func (n *Node) layoutStage() (layout.Stage, error) {
	s := layout.Stage{Name: n.id.StageName(), ID: n.id.ID, Result: n.class.HasResult()}
	for _, d := range n.class.def.Options {
		k := d.Kind()
		switch {
		case k == layout.Result:
			continue
		case k.Tabular():
			s.Entries = append(s.Entries, layout.Entry{Kind: k, Attr: d.Attr()})
			continue
		}
		v, err := d.load(n)
		if errors.Is(err, ErrNotAvailable) {
			continue
		}
		if err != nil {
			return layout.Stage{}, err
		}
		e := layout.Entry{Kind: k, Attr: d.Attr()}
		if k == layout.Deps {
			if e.Paths, err = n.depPaths(v); err != nil {
				return layout.Stage{}, fmt.Errorf("%s.%s: %w", n.id.StageName(), d.Attr(), err)
			}
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

// depPaths flattens a deps value into the paths the stage depends on.
func (n *Node) depPaths(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{filepath.ToSlash(x)}, nil
	case Path:
		return []string{filepath.ToSlash(string(x))}, nil
	case OutputRef:
		p, err := n.project.refPath(x)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	case []any:
		var out []string
		for _, it := range x {
			ps, err := n.depPaths(it)
			if err != nil {
				return nil, err
			}
			out = append(out, ps...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("can not depend on a %T", v)
}

// register prepares the file layout and runs the tool.
func (n *Node) register(ctx context.Context, opts CallOptions) error {
	s, err := n.layoutStage()
	if err != nil {
		return err
	}
	args, err := n.project.layout.Arguments(s)
	if err != nil {
		return err
	}
	if err := n.project.layout.MakeDirs(n.project.root, s); err != nil {
		return err
	}
	if err := n.writeParamFiles(s); err != nil {
		return err
	}
	argv := n.registration(opts, args).Argv()
	n.project.logger.Printf("registering stage %s: %v", n.id.StageName(), argv)
	if err := n.project.runner.Run(ctx, argv); err != nil {
		return fmt.Errorf("register stage %s: %w", n.id.StageName(), err)
	}
	return nil
}

// writeParamFiles materializes each stored parameter as the file the tool
// tracks for it.
func (n *Node) writeParamFiles(s layout.Stage) error {
	for _, e := range s.Entries {
		if e.Kind != layout.Params {
			continue
		}
		tree, err := n.project.internals.Value(n.id.key(), string(e.Kind), e.Attr)
		if err != nil {
			return err
		}
		rel, err := n.project.layout.AttrPath(s.Name, s.ID, e.Kind, e.Attr)
		if err != nil {
			return err
		}
		if err := store.WriteValueFile(n.abs(rel), e.Attr, tree); err != nil {
			return err
		}
	}
	return nil
}
