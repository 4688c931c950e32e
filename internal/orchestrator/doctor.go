package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/db"
	"github.com/lucasnoah/manimator/internal/runner"
)

const probeTimeout = 30 * time.Second

// Check is one doctor probe result.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Doctor probes the render engine, the concat tool, credentials and the
// ledger concurrently. Results keep a fixed order.
func Doctor(ctx context.Context, cfg *config.Config, cmd runner.CommandRunner) []Check {
	probes := []func(context.Context) Check{
		func(ctx context.Context) Check {
			return probeBinary(ctx, cmd, "render engine", cfg.Render.Command, "--version")
		},
		func(ctx context.Context) Check {
			return probeBinary(ctx, cmd, "concat tool", cfg.Concat.Command, "-version")
		},
		func(context.Context) Check { return probeCredentials(cfg) },
		func(context.Context) Check { return probeLedger(cfg) },
	}

	checks := make([]Check, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probes {
		g.Go(func() error {
			checks[i] = p(gctx)
			return nil
		})
	}
	_ = g.Wait()
	return checks
}

// Healthy reports whether every check passed.
func Healthy(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func probeBinary(ctx context.Context, cmd runner.CommandRunner, name, bin, versionFlag string) Check {
	c := Check{Name: name}
	path, ok := runner.Available(bin)
	if !ok {
		c.Detail = fmt.Sprintf("%s not found in PATH", bin)
		return c
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	res, err := cmd.Run(ctx, "", path, versionFlag)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	if res.ExitCode != 0 {
		c.Detail = fmt.Sprintf("%s %s exited %d", bin, versionFlag, res.ExitCode)
		return c
	}
	c.OK = true
	c.Detail = firstLine(res.Combined)
	if c.Detail == "" {
		c.Detail = path
	}
	return c
}

func probeCredentials(cfg *config.Config) Check {
	c := Check{Name: "credentials"}
	if !cfg.NeedsCredentials() {
		c.OK = true
		c.Detail = "provider " + cfg.LLM.Provider + " needs no key"
		return c
	}
	if cfg.APIKey() == "" {
		c.Detail = cfg.LLM.APIKeyEnv + " is not set"
		return c
	}
	c.OK = true
	c.Detail = cfg.LLM.APIKeyEnv + " is set"
	return c
}

func probeLedger(cfg *config.Config) Check {
	c := Check{Name: "ledger"}
	dsn, err := cfg.LedgerDSN()
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	d, err := db.Open(dsn)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer d.Close()
	if err := d.Migrate(); err != nil {
		c.Detail = err.Error()
		return c
	}
	c.OK = true
	c.Detail = string(d.Dialect())
	return c
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
