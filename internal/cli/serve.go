package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/pipeline"
	"github.com/lucasnoah/manimator/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local run browser",
	Long: `Start a read-only browser UI on localhost showing past runs, per-scene
attempts, render logs and the ledger's event timeline.

Runs are read from <render.media_dir>/runs of the resolved configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		d, cleanup, err := openLedger(cfg)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := web.NewServer(pipeline.StoreForMedia(cfg.Render.MediaDir), d, port)
		srv.SetLogger(logger)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
}
