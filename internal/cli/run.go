package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/concat"
	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/oracle"
	"github.com/lucasnoah/manimator/internal/orchestrator"
	"github.com/lucasnoah/manimator/internal/pipeline"
	"github.com/lucasnoah/manimator/internal/render"
	"github.com/lucasnoah/manimator/internal/runner"
	"github.com/lucasnoah/manimator/internal/stage"
	"github.com/lucasnoah/manimator/internal/syntax"
)

var runOpts struct {
	maxRetries int
	noValidate bool
	mock       bool
	output     string
	format     string
}

// applyRunFlags layers command-line overrides onto cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-retries") {
		cfg.Render.MaxRetries = runOpts.maxRetries
	}
	if runOpts.noValidate {
		cfg.Render.Validate = false
	}
	if runOpts.mock {
		cfg.LLM.Provider = config.ProviderMock
		cfg.LLM.Model = "mock"
		cfg.LLM.APIKeyEnv = ""
	}
	if runOpts.output != "" {
		cfg.Concat.Output = runOpts.output
	}
}

func runDocument(cmd *cobra.Command, docPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	if err := orchestrator.Preflight(cfg, docPath); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := oracle.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	var ledger orchestrator.Ledger
	if d, cleanup, err := openLedger(cfg); err != nil {
		logger.Warn("ledger unavailable; run history will not be recorded", "error", err)
	} else {
		defer cleanup()
		ledger = d
	}
	store := pipeline.StoreForMedia(cfg.Render.MediaDir)
	exec := &runner.ExecRunner{}

	eng := stage.NewEngine(
		oracle.NewSynthesizer(client, cfg),
		oracle.NewValidator(client, cfg),
		oracle.NewRepairer(client, cfg),
		render.NewRenderer(exec, cfg),
		stage.Options{
			MaxRetries: cfg.Render.MaxRetries,
			Validate:   cfg.Render.Validate,
			SceneClass: cfg.Render.SceneClass,
		},
	)
	eng.SetLogger(logger)
	eng.SetProber(syntax.NewPythonProber())
	eng.SetRecorder(orchestrator.NewJournal(store, ledger, logger))

	orch := orchestrator.NewOrchestrator(eng, concat.NewAggregator(exec, cfg), cfg)
	orch.SetStore(store)
	orch.SetLedger(ledger)
	orch.SetLogger(logger)

	res, runErr := orch.RunDocument(ctx, docPath)
	if res != nil {
		if err := printRunSummary(cmd, res); err != nil {
			return err
		}
	}
	return runErr
}

func printRunSummary(cmd *cobra.Command, res *orchestrator.RunResult) error {
	if runOpts.format == "json" {
		return writeJSON(cmd, struct {
			*orchestrator.RunResult
			Status           string `json:"status"`
			AggregationError string `json:"aggregation_error,omitempty"`
		}{res, res.Status(), errString(res.AggregationErr)})
	}

	out := cmd.OutOrStdout()
	if len(res.Units) > 0 {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCENE\tSTATE\tRENDERS\tREPAIRS\tARTIFACT")
		for _, u := range res.Units {
			artifact := u.ArtifactPath
			if u.State == stage.Rendered && !u.Resolved {
				artifact = "(unresolved)"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				truncate(u.Unit.ID, 30), u.StateName, u.RenderAttempts, u.RepairRounds, artifact)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	switch {
	case res.FinalPath != "":
		fmt.Fprintf(out, "\nFinal video: %s\n", res.FinalPath)
	case res.NoArtifacts:
		fmt.Fprintln(out, "\nNo artifacts produced.")
	case res.AggregationErr != nil:
		fmt.Fprintf(out, "\nConcatenation failed; %d scene clip(s) kept:\n", len(res.Artifacts))
		for _, p := range res.Artifacts {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	fmt.Fprintf(out, "Run %s\n", res.RunID)
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
