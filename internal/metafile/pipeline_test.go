package metafile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadPipeline(t *testing.T) {
	p := filepath.Join(t.TempDir(), PipelineFile)
	content := `stages:
  Prepare:
    cmd: ./bin exec --module pipeline --class Prepare --name Prepare --id 0
    params:
    - params/0_size
    outs:
    - outs/0_Prepare.json
  Train:
    cmd:
    - ./bin exec --module pipeline --class Train --name Train --id 0
    deps:
    - outs/0_Prepare.json
    outs:
    - outs/0_model
    - outs/0_tmp:
        cache: false
    plots:
    - nodes/Train/loss.csv
    metrics:
    - nodes/Train/score.csv:
        cache: false
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadPipeline(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Prepare" || got[1].Name != "Train" {
		t.Fatalf("unexpected stages: %+v", got)
	}
	want := PipelineStage{
		Name:    "Train",
		Cmd:     "./bin exec --module pipeline --class Train --name Train --id 0",
		Deps:    []string{"outs/0_Prepare.json"},
		Outs:    []string{"outs/0_model", "outs/0_tmp"},
		Metrics: []string{"nodes/Train/score.csv"},
		Plots:   []string{"nodes/Train/loss.csv"},
	}
	if !reflect.DeepEqual(got[1], want) {
		t.Fatalf("want %+v\n got %+v", want, got[1])
	}
}

func TestReadPipeline_Missing(t *testing.T) {
	got, err := ReadPipeline(filepath.Join(t.TempDir(), PipelineFile))
	if err != nil || got != nil {
		t.Fatalf("expected no stages, got %v %v", got, err)
	}
}
