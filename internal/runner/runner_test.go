package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireSh(t *testing.T) {
	t.Helper()
	if _, ok := Available("sh"); !ok {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesStreams(t *testing.T) {
	requireSh(t)
	r := &ExecRunner{}
	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out\n")
	}
	if res.Stderr != "err\n" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err\n")
	}
	if !strings.Contains(res.Combined, "out") || !strings.Contains(res.Combined, "err") {
		t.Errorf("Combined = %q, want both streams", res.Combined)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireSh(t)
	r := &ExecRunner{}
	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestExecRunner_ArgsNotShellInterpreted(t *testing.T) {
	requireSh(t)
	r := &ExecRunner{}
	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", `printf '%s' "$1"`, "sh", "a b; echo pwned")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "a b; echo pwned" {
		t.Errorf("Stdout = %q, want literal argument", res.Stdout)
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	requireSh(t)
	r := &ExecRunner{WaitDelay: 100 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := r.Run(ctx, t.TempDir(), "sh", "-c", "sleep 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut=true")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{}
	_, err := r.Run(context.Background(), t.TempDir(), "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestTail(t *testing.T) {
	if got := Tail("short", 10); got != "short" {
		t.Errorf("Tail(short) = %q", got)
	}
	long := strings.Repeat("a", 20) + "END"
	got := Tail(long, 5)
	if !strings.HasSuffix(got, "a"+"END") {
		t.Errorf("Tail kept wrong end: %q", got)
	}
	if !strings.HasPrefix(got, "…(truncated)") {
		t.Errorf("Tail missing truncation marker: %q", got)
	}
}
