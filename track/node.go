package track

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/flarebyte/stagetrack/internal/lifecycle"
	"github.com/flarebyte/stagetrack/internal/serial"
	"github.com/flarebyte/stagetrack/internal/store"
)

// Node is one stage instance.
type Node struct {
	project *Project
	class   *Class
	id      Identity
	lc      *lifecycle.Lifecycle
	// results holds serialized result values written during run.
	results map[string]any
}

func (n *Node) Identity() Identity { return n.id }
func (n *Node) Class() *Class      { return n.class }
func (n *Node) Project() *Project  { return n.project }
func (n *Node) Phase() Phase       { return n.lc.Phase() }
func (n *Node) Loaded() bool       { return n.lc.Loaded() }

// Ref returns a reference to the whole stage.
func (n *Node) Ref() OutputRef { return OutputRef{Stage: n.id} }

// Output returns a reference to one of the stage's outputs.
func (n *Node) Output(attr string) OutputRef {
	return OutputRef{Stage: n.id, Attribute: attr}
}

func (n *Node) option(attr string) (Descriptor, error) {
	d, ok := n.class.Option(attr)
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", n.id.StageName(), ErrUnknownOption, attr)
	}
	return d, nil
}

// Get returns the current value of attr. A value that was never written
// yields ErrNotAvailable.
func (n *Node) Get(attr string) (any, error) {
	d, err := n.option(attr)
	if err != nil {
		return nil, err
	}
	return d.load(n)
}

// Set writes attr. v may be a Literal, an OutputRef, a *Node or a plain value.
func (n *Node) Set(attr string, v any) error {
	d, err := n.option(attr)
	if err != nil {
		return err
	}
	if d.Kind() == KindDeps {
		if err := n.project.checkDepRefs(v); err != nil {
			return fmt.Errorf("%s.%s: %w", n.id.StageName(), attr, err)
		}
	}
	v = unwrap(v)
	if kind, ok := serial.MutableContainer(v); ok {
		n.project.logger.Printf("warning: %s.%s is set to a %s, in-place changes after assignment are not saved", n.id.StageName(), attr, kind)
	}
	if err := d.save(n, v); err != nil {
		return fmt.Errorf("%s.%s: %w", n.id.StageName(), attr, err)
	}
	return nil
}

// GetAs returns attr converted to T. Values that are not already a T are
// converted through their JSON form, e.g. float64 to int.
func GetAs[T any](n *Node, attr string) (T, error) {
	var out T
	v, err := n.Get(attr)
	if err != nil {
		return out, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("%s.%s: %w", n.id.StageName(), attr, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%s.%s: can not convert %T to %T: %v", n.id.StageName(), attr, v, out, err)
	}
	return out, nil
}

func (n *Node) finishInit(args Args) error {
	if init := n.class.def.Init; init != nil {
		if err := init(n, args); err != nil {
			return fmt.Errorf("%s init: %w", n.id.StageName(), err)
		}
	}
	if err := n.lc.EndInit(); err != nil {
		return err
	}
	n.id.Module = n.class.ResolvedModule()
	return nil
}

// CallOptions control how a stage is registered with the tool.
type CallOptions struct {
	Force bool
	// Exec lets the tool run the stage right away instead of only registering it.
	Exec          bool
	AlwaysChanged bool
	// Slurm submits the stage command through srun.
	Slurm bool
}

// DefaultCallOptions forces re-registration without running.
func DefaultCallOptions() CallOptions {
	return CallOptions{Force: true}
}

// Call runs the class's call function with args and registers the stage.
func (n *Node) Call(ctx context.Context, args Args, opts CallOptions) error {
	if err := n.lc.BeginCall(); err != nil {
		return err
	}
	if call := n.class.def.Call; call != nil {
		if err := call(n, args); err != nil {
			return fmt.Errorf("%s call: %w", n.id.StageName(), err)
		}
	}
	if err := n.lc.EndCall(); err != nil {
		return err
	}
	return n.register(ctx, opts)
}

// Run executes the stage's run function. Results are written to the result
// file when it returns without error.
func (n *Node) Run(ctx context.Context) error {
	if err := n.lc.BeginRun(); err != nil {
		return err
	}
	runErr := n.class.def.Run(ctx, n)
	if err := n.lc.EndRun(); err != nil {
		return err
	}
	if runErr != nil {
		n.results = map[string]any{}
		return fmt.Errorf("%s run: %w", n.id.StageName(), runErr)
	}
	if len(n.results) == 0 {
		return nil
	}
	if err := store.MergeResults(n.abs(n.resultFile()), n.results); err != nil {
		return err
	}
	n.results = map[string]any{}
	return nil
}

func (n *Node) resultFile() string {
	return n.project.layout.ResultFile(n.id.StageName(), n.id.ID)
}

// abs maps a project-relative posix path to the filesystem.
func (n *Node) abs(rel string) string {
	return filepath.Join(n.project.root, filepath.FromSlash(rel))
}
