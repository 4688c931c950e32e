package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/analytics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize render success and repair effort across recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		sinceStr, _ := cmd.Flags().GetString("since")

		since, err := parseSince(sinceStr)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openLedger(cfg)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer cleanup()

		totals, err := analytics.QueryRunTotals(d, since)
		if err != nil {
			return err
		}
		units, err := analytics.QueryUnitStats(d, since)
		if err != nil {
			return err
		}

		if format == "json" {
			if units == nil {
				units = []analytics.UnitStats{}
			}
			return writeJSON(cmd, struct {
				Runs   analytics.RunTotals   `json:"runs"`
				Scenes []analytics.UnitStats `json:"scenes"`
			}{totals, units})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Runs: %d total, %d completed, %d without artifacts, %d failed, %d in progress\n\n",
			totals.Total, totals.Completed, totals.NoArtifacts, totals.Failed, totals.InProgress)
		if len(units) == 0 {
			fmt.Fprintln(out, "No scene data.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCENE\tRUNS\tRENDERED\tSUCCESS\tAVG RENDERS\tAVG REPAIRS\tAVG SECS\tP95 SECS")
		for _, u := range units {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.0f%%\t%.1f\t%.1f\t%.1f\t%.1f\n",
				u.Slug, u.Runs, u.Rendered, u.SuccessRate, u.AvgRenderAttempts,
				u.AvgRepairRounds, u.AvgRenderSeconds, u.P95RenderSeconds)
		}
		return w.Flush()
	},
}

// parseSince converts a --since value (a Go duration such as 168h, or a
// YYYY-MM-DD date) to an RFC 3339 lower bound.
func parseSince(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().UTC().Add(-d).Format(time.RFC3339Nano), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return "", fmt.Errorf("invalid --since %q: want a duration (168h) or a date (2006-01-02)", s)
}

func init() {
	statsCmd.Flags().String("format", "text", "Output format: text or json")
	statsCmd.Flags().String("since", "", "Only count runs started within this duration or after this date")
}
