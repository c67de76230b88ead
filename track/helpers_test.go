package track

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flarebyte/stagetrack/internal/config"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, args []string) error {
	f.calls = append(f.calls, append([]string(nil), args...))
	return f.err
}

func newTestProject(t *testing.T, opts ...ProjectOption) (*Project, *fakeRunner) {
	t.Helper()
	cfg := config.Default()
	cfg.Stage.Program = "./pipeline"
	r := &fakeRunner{}
	p := NewProject(t.TempDir(), cfg, append([]ProjectOption{WithRunner(r)}, opts...)...)
	return p, r
}

// classA has a parameter x and doubles it into its result.
func classA(t *testing.T) *Class {
	t.Helper()
	c, err := NewClass("pipeline", "A", Definition{
		Options: []Descriptor{
			Params("x", Default(1)),
			Result("total"),
		},
		Init: func(n *Node, args Args) error {
			if v, ok := args["x"]; ok {
				return n.Set("x", v)
			}
			return nil
		},
		Run: func(_ context.Context, n *Node) error {
			x, err := GetAs[int](n, "x")
			if err != nil {
				return err
			}
			return n.Set("total", x*2)
		},
	})
	if err != nil {
		t.Fatalf("declare A: %v", err)
	}
	return c
}

// classB depends on another stage.
func classB(t *testing.T) *Class {
	t.Helper()
	c, err := NewClass("pipeline", "B", Definition{
		Options: []Descriptor{
			Params("upstream"),
			Deps("data"),
			Outs("model"),
		},
		Run: func(context.Context, *Node) error { return nil },
	})
	if err != nil {
		t.Fatalf("declare B: %v", err)
	}
	return c
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return out
}

func internalsDoc(t *testing.T, p *Project) map[string]any {
	t.Helper()
	return readJSON(t, filepath.Join(p.Root(), p.Config().InternalsFile))
}
