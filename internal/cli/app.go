package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/db"
	"github.com/lucasnoah/manimator/internal/logging"
)

// loadConfig reads --config when given, otherwise the default locations.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// newLogger builds the process logger on the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, func() error, error) {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(logging.Options{
		Level:   level,
		File:    cfg.Log.File,
		Journal: cfg.Log.Journal,
		Console: cmd.ErrOrStderr(),
	})
}

// openLedger opens and migrates the configured ledger, returning it with a
// cleanup func.
func openLedger(cfg *config.Config) (*db.DB, func(), error) {
	dsn, err := cfg.LedgerDSN()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
