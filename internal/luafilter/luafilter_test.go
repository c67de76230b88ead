package luafilter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func trainStage() map[string]any {
	return map[string]any{
		"name": "Train",
		"id":   0,
		"options": map[string]any{
			"params": map[string]any{"epochs": float64(10), "tags": []any{"fast", "gpu"}},
		},
		"results":    map[string]any{"loss": 0.25},
		"registered": true,
	}
}

func TestMatch_Expressions(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{`stage.name == "Train"`, true},
		{`stage.options.params.epochs > 5`, true},
		{`stage.options.params.tags[2] == "gpu"`, true},
		{`string.find(stage.name, "^Tr") ~= nil`, true},
		{`stage.name == "returns"`, false},
		{`stage.name ~= "return"`, true},
		{`return stage.registered and stage.results.loss < 1`, true},
		{"stage.id == 0 -- instance zero only", true},
		{`stage.options.outs ~= nil`, false},
		{`if stage.id == 0 then return true end return false`, true},
		{`stage.id`, true},
		{`nil`, false},
	}
	for _, tt := range tests {
		f, err := New(tt.expr, DefaultLimits())
		if err != nil {
			t.Fatalf("%q: compile: %v", tt.expr, err)
		}
		got, err := f.Match(context.Background(), trainStage())
		if err != nil {
			t.Fatalf("%q: match: %v", tt.expr, err)
		}
		if got != tt.want {
			t.Fatalf("%q: want %v, got %v", tt.expr, tt.want, got)
		}
	}
}

func TestNew_SyntaxError(t *testing.T) {
	if _, err := New("stage.name ==", DefaultLimits()); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestNew_LoopsPricedOut(t *testing.T) {
	_, err := New("while true do end", DefaultLimits())
	if !errors.Is(err, ErrInstructionLimit) {
		t.Fatalf("expected instruction limit, got %v", err)
	}
}

func TestMatch_Timeout(t *testing.T) {
	limits := DefaultLimits()
	limits.InstructionLimit = 0
	limits.Timeout = 20 * time.Millisecond
	f, err := New("while true do end return true", limits)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := f.Match(context.Background(), trainStage()); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestMatch_LibsClosed(t *testing.T) {
	limits := DefaultLimits()
	limits.Libs.String = false
	f, err := New(`string.len(stage.name) > 0`, limits)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := f.Match(context.Background(), trainStage()); err == nil {
		t.Fatalf("expected error when string library is closed")
	}
}
