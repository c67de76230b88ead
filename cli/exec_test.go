package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flarebyte/stagetrack/internal/config"
	"github.com/flarebyte/stagetrack/track"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, []string) error { return nil }

func squareClass(t *testing.T) *track.Class {
	t.Helper()
	c, err := track.NewClass("pipeline", "Square", track.Definition{
		Options: []track.Descriptor{track.Params("x", track.Default(3)), track.Result("y")},
		Run: func(_ context.Context, n *track.Node) error {
			x, err := track.GetAs[int](n, "x")
			if err != nil {
				return err
			}
			return n.Set("y", x*x)
		},
	})
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	return c
}

func TestExecCommand_RunsStoredStage(t *testing.T) {
	root := t.TempDir()
	p := track.NewProject(root, config.Default(), track.WithRunner(noopRunner{}))
	c := squareClass(t)
	if err := p.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	n, err := p.New(c, nil, track.WithName("Sq"), track.WithID(1))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := n.Call(context.Background(), nil, track.DefaultCallOptions()); err != nil {
		t.Fatalf("call: %v", err)
	}

	cmdline := n.Command()[1:]
	if err := Execute(context.Background(), "pipeline", p, cmdline); err != nil {
		t.Fatalf("exec: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(root, "outs", "1_Sq.json"))
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["y"] != float64(9) {
		t.Fatalf("unexpected result %v", res)
	}
}

func TestExecCommand_UnknownClass(t *testing.T) {
	p := track.NewProject(t.TempDir(), config.Default(), track.WithRunner(noopRunner{}))
	err := Execute(context.Background(), "pipeline", p, []string{"exec", "--module", "pipeline", "--class", "Nope"})
	if !errors.Is(err, track.ErrUnknownClass) {
		t.Fatalf("expected unknown class, got %v", err)
	}
	err = Execute(context.Background(), "pipeline", p, []string{"exec"})
	if err == nil || err.Error() != "missing required flags: --module and --class" {
		t.Fatalf("unexpected error: %v", err)
	}
}
