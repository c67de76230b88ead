package store

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadDocument_MissingFileIsEmpty(t *testing.T) {
	doc, err := ReadDocument(filepath.Join(t.TempDir(), "nope", "internals.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("expected empty document, got %#v", doc)
	}
}

func TestWriteDocument_AddsDefaultAndCreatesDirs(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config", "internals.json")
	if err := WriteDocument(p, map[string]any{"A": map[string]any{}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, ok := got[DefaultKey]
	if !ok || v != nil {
		t.Fatalf("expected default sentinel, got %#v", got)
	}
}

func TestWriteDocument_RejectsBeforeWriting(t *testing.T) {
	p := filepath.Join(t.TempDir(), "internals.json")
	if err := os.WriteFile(p, []byte("{\"keep\": 1}\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := WriteDocument(p, map[string]any{"bad": math.Inf(1)})
	if !errors.Is(err, ErrNotJSONSerializable) {
		t.Fatalf("expected ErrNotJSONSerializable, got %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "{\"keep\": 1}\n" {
		t.Fatalf("file was modified: %q", string(b))
	}
}

func TestMergeOption_Accumulates(t *testing.T) {
	s := NewInternals(filepath.Join(t.TempDir(), "internals.json"))
	key := StageKey{Name: "Train", ID: 0}
	if err := s.MergeOption(key, "params", map[string]any{"a": 1.0}); err != nil {
		t.Fatalf("merge a: %v", err)
	}
	if err := s.MergeOption(key, "params", map[string]any{"b": "x"}); err != nil {
		t.Fatalf("merge b: %v", err)
	}
	if err := s.MergeOption(key, "deps", map[string]any{"d": "in.txt"}); err != nil {
		t.Fatalf("merge deps: %v", err)
	}
	got, err := s.Option(key, "params")
	if err != nil {
		t.Fatalf("option: %v", err)
	}
	want := map[string]any{"a": 1.0, "b": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %#v, got %#v", want, got)
	}
	if _, err := s.Value(key, "params", "missing"); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if v, err := s.Value(key, "deps", "d"); err != nil || v != "in.txt" {
		t.Fatalf("unexpected deps value %v %v", v, err)
	}
}

func TestStages_SortedAndSkipsSentinel(t *testing.T) {
	s := NewInternals(filepath.Join(t.TempDir(), "internals.json"))
	for _, k := range []StageKey{{Name: "B", ID: 1}, {Name: "A", ID: 0}, {Name: "B", ID: 0}} {
		if err := s.MergeOption(k, "params", map[string]any{"x": 1}); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	got, err := s.Stages()
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	want := []StageKey{{Name: "A", ID: 0}, {Name: "B", ID: 0}, {Name: "B", ID: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestMergeResults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "outs", "0_Train.json")
	if _, err := ResultValue(p, "score"); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if err := MergeResults(p, map[string]any{"score": 0.5}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := MergeResults(p, map[string]any{"loss": 0.1}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	res, err := ReadResults(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res["score"] != 0.5 || res["loss"] != 0.1 {
		t.Fatalf("unexpected results: %#v", res)
	}
	if _, ok := res[DefaultKey]; ok {
		t.Fatalf("result files must not carry the sentinel")
	}
}
