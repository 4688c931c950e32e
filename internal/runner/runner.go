// Package runner executes external programs with captured output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// MaxDiagnosticsLen caps how much output Tail retains.
const MaxDiagnosticsLen = 8000

// Result holds the captured output of one command.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string // stdout and stderr interleaved in write order
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
}

// ExecRunner implements CommandRunner with os/exec. Arguments are passed
// as an argv vector, never through a shell.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the
	// process is killed. Zero means 5s.
	WaitDelay time.Duration
}

// Run executes name with args in dir. A non-zero exit is reported through
// Result.ExitCode with a nil error; err is non-nil only when the program
// could not be started.
func (e *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	combined := &syncBuffer{}
	cmd.Stdout = &teeWriter{own: &stdoutBuf, shared: combined}
	cmd.Stderr = &teeWriter{own: &stderrBuf, shared: combined}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combined.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		res.ExitCode = -1
		res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		return res, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("exec %s: %w", name, err)
	}
	return res, nil
}

// Available reports whether name resolves on PATH.
func Available(name string) (string, bool) {
	p, err := exec.LookPath(name)
	return p, err == nil
}

// Tail keeps the last max bytes of s. Error summaries and tracebacks are
// usually at the end.
func Tail(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return "…(truncated)\n" + s[len(s)-max:]
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// teeWriter writes to a private buffer and the shared combined buffer.
// os/exec runs one copying goroutine per stream, so own needs no lock.
type teeWriter struct {
	own    *bytes.Buffer
	shared *syncBuffer
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.own.Write(p)
	return w.shared.Write(p)
}
