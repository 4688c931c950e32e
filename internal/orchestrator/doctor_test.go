package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/runner"
)

type versionRunner struct {
	mu    sync.Mutex
	calls []string
}

func (v *versionRunner) Run(_ context.Context, _ string, name string, args ...string) (runner.Result, error) {
	v.mu.Lock()
	v.calls = append(v.calls, name)
	v.mu.Unlock()
	return runner.Result{Combined: "tool v1.0\nmore detail\n"}, nil
}

func TestDoctor(t *testing.T) {
	isolate(t)
	self, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.LLM.Provider = config.ProviderMock
	cfg.Render.Command = self
	cfg.Concat.Command = "manimator-test-no-such-binary"
	cfg.Ledger.DSN = filepath.Join(t.TempDir(), "ledger.db")

	vr := &versionRunner{}
	checks := Doctor(context.Background(), cfg, vr)

	if len(checks) != 4 {
		t.Fatalf("got %d checks, want 4", len(checks))
	}
	byName := map[string]Check{}
	for _, c := range checks {
		byName[c.Name] = c
	}

	if c := byName["render engine"]; !c.OK || c.Detail != "tool v1.0" {
		t.Errorf("render engine = %+v", c)
	}
	if c := byName["concat tool"]; c.OK {
		t.Errorf("concat tool should fail: %+v", c)
	}
	if c := byName["credentials"]; !c.OK {
		t.Errorf("credentials = %+v", c)
	}
	if c := byName["ledger"]; !c.OK || c.Detail != "sqlite3" {
		t.Errorf("ledger = %+v", c)
	}
	if Healthy(checks) {
		t.Error("Healthy should be false with a missing binary")
	}
	if len(vr.calls) != 1 {
		t.Errorf("runner calls = %v, want only the render engine probe", vr.calls)
	}
}

func TestDoctor_MissingCredentials(t *testing.T) {
	isolate(t)
	cfg := config.Default()
	cfg.LLM.APIKeyEnv = "MANIMATOR_TEST_UNSET_KEY"
	t.Setenv("MANIMATOR_TEST_UNSET_KEY", "")
	cfg.Ledger.DSN = filepath.Join(t.TempDir(), "ledger.db")

	checks := Doctor(context.Background(), cfg, &versionRunner{})
	if checks[2].Name != "credentials" || checks[2].OK {
		t.Errorf("credentials = %+v", checks[2])
	}
}
