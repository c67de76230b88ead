package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/flarebyte/stagetrack/track"
)

type exitCoder interface {
	ExitCode() int
}

// ExitCode maps err to a process exit status. A failed tool run keeps the
// tool's own status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var te *track.ExitError
	if errors.As(err, &te) && te.ExitCode > 0 {
		return te.ExitCode
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		if c := ec.ExitCode(); c != 0 {
			return c
		}
	}
	return 1
}

// Exit prints err as a single line to stderr and exits. It returns when err is nil.
func Exit(err error) {
	if err == nil {
		return
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if msg == "" {
		msg = "error"
	}
	_, _ = os.Stderr.WriteString(msg + "\n")
	os.Exit(ExitCode(err))
}
