// Package dvc runs the external pipeline tool as a subprocess.
package dvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// DefaultProgram is the tool looked up on PATH when Options.Program is empty.
const DefaultProgram = "dvc"

// ErrNotFound reports that the tool program could not be started.
var ErrNotFound = errors.New("program not found")

// ExitError is returned when the tool exits non-zero or times out.
type ExitError struct {
	Program  string
	Args     []string
	ExitCode int
	// Stderr holds the captured tail of the tool's standard error.
	Stderr   string
	TimedOut bool
}

func (e *ExitError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s %s: timeout", e.Program, strings.Join(e.Args, " "))
	}
	msg := fmt.Sprintf("%s %s: exit status %d", e.Program, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Options configures a Runner.
type Options struct {
	Program string
	Dir     string
	Env     map[string]string
	// Timeout of zero means no limit beyond the context.
	Timeout          time.Duration
	TermGrace        time.Duration
	KillProcessGroup bool
	// CaptureMaxBytes bounds the stderr kept for ExitError.
	CaptureMaxBytes int
	// Stdout and Stderr receive the tool output as it is produced. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner invokes the tool.
type Runner struct {
	opts Options
}

// NewRunner returns a Runner with defaults applied.
func NewRunner(opts Options) *Runner {
	if opts.Program == "" {
		opts.Program = DefaultProgram
	}
	if opts.TermGrace <= 0 {
		opts.TermGrace = 2 * time.Second
	}
	if opts.CaptureMaxBytes == 0 {
		opts.CaptureMaxBytes = 64 * 1024
	}
	return &Runner{opts: opts}
}

// Run executes the tool with args and waits for it to exit.
func (r *Runner) Run(ctx context.Context, args []string) error {
	opts := r.opts
	cmd := exec.Command(opts.Program, args...)
	cmd.Dir = opts.Dir
	cmd.Env = applyEnvOverlay(os.Environ(), opts.Env)
	if opts.KillProcessGroup {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}
	errBuf := &limitedBuffer{max: opts.CaptureMaxBytes}
	cmd.Stdout = writerOrDiscard(opts.Stdout)
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(opts.Stderr, errBuf)
	} else {
		cmd.Stderr = errBuf
	}

	if err := cmd.Start(); err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return fmt.Errorf("%w: %s", ErrNotFound, opts.Program)
		}
		return fmt.Errorf("program %s start failed: %w", opts.Program, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var runErr error
	stopped := false
	select {
	case runErr = <-done:
	case <-timeout:
		stopped = true
		runErr = terminate(cmd, done, opts)
	case <-ctx.Done():
		terminate(cmd, done, opts)
		return ctx.Err()
	}

	if stopped {
		return &ExitError{Program: opts.Program, Args: args, ExitCode: -2, Stderr: errBuf.String(), TimedOut: true}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &ExitError{Program: opts.Program, Args: args, ExitCode: exitErr.ExitCode(), Stderr: errBuf.String()}
		}
		return fmt.Errorf("program %s execution failed: %w", opts.Program, runErr)
	}
	return nil
}

// terminate sends SIGTERM, then SIGKILL after the grace period.
func terminate(cmd *exec.Cmd, done <-chan error, opts Options) error {
	signalProcess(cmd, opts.KillProcessGroup, syscall.SIGTERM)
	grace := time.NewTimer(opts.TermGrace)
	defer grace.Stop()
	select {
	case err := <-done:
		return err
	case <-grace.C:
		signalProcess(cmd, opts.KillProcessGroup, syscall.SIGKILL)
		return <-done
	}
}

func signalProcess(cmd *exec.Cmd, killGroup bool, sig syscall.Signal) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if killGroup && pid > 0 {
		if err := syscall.Kill(-pid, sig); err == nil {
			return
		}
	}
	_ = cmd.Process.Signal(sig)
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
