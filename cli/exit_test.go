package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/flarebyte/stagetrack/track"
)

type codedErr int

func (c codedErr) Error() string { return "coded" }
func (c codedErr) ExitCode() int { return int(c) }

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"tool failure", fmt.Errorf("register stage A: %w", &track.ExitError{Program: "dvc", ExitCode: 3}), 3},
		{"tool timeout", &track.ExitError{Program: "dvc", ExitCode: -2, TimedOut: true}, 1},
		{"exit coder", fmt.Errorf("wrapped: %w", codedErr(4)), 4},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Fatalf("%s: want %d, got %d", tt.name, tt.want, got)
		}
	}
}
