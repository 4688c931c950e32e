package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or the event timeline of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openLedger(cfg)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer cleanup()

		if len(args) == 1 {
			return showRunHistory(cmd, d, args[0], format)
		}

		runs, err := d.ListRuns(limit)
		if err != nil {
			return err
		}
		if format == "json" {
			if runs == nil {
				runs = []db.Run{}
			}
			return writeJSON(cmd, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTATUS\tSCENES\tARTIFACTS\tSTARTED\tDOCUMENT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				r.ID, r.Status, r.Units, r.Artifacts, r.StartedAt, truncate(r.Document, 50))
		}
		return w.Flush()
	},
}

func showRunHistory(cmd *cobra.Command, d *db.DB, runID, format string) error {
	run, err := d.GetRun(runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	events, err := d.GetUnitEvents(runID)
	if err != nil {
		return err
	}
	attempts, err := d.GetRenderAttempts(runID)
	if err != nil {
		return err
	}

	if format == "json" {
		return writeJSON(cmd, struct {
			Run      *db.Run            `json:"run"`
			Events   []db.UnitEvent     `json:"events"`
			Attempts []db.RenderAttempt `json:"render_attempts"`
		}{run, events, attempts})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Document: %s\n", run.Document)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	if run.FinalPath != "" {
		fmt.Fprintf(out, "Output:   %s\n", run.FinalPath)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSCENE\tEVENT\tATTEMPT\tDETAIL")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.Timestamp, e.Slug, e.Event, e.Attempt, truncate(e.Detail, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(attempts) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tATTEMPT\tCODE\tEXIT\tOK\tSECONDS")
	for _, a := range attempts {
		exit := fmt.Sprintf("%d", a.ExitCode)
		if a.TimedOut {
			exit = "timeout"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%t\t%.1f\n",
			a.Slug, a.Attempt, a.Provenance, exit, a.Succeeded, float64(a.DurationMs)/1000)
	}
	return w.Flush()
}

func init() {
	historyCmd.Flags().String("format", "text", "Output format: text or json")
	historyCmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")
}
