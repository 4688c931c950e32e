package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/orchestrator"
	"github.com/lucasnoah/manimator/internal/runner"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the render engine, ffmpeg, credentials and ledger are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		checks := orchestrator.Doctor(cmd.Context(), cfg, &runner.ExecRunner{})

		if format == "json" {
			if err := writeJSON(cmd, checks); err != nil {
				return err
			}
		} else {
			for _, c := range checks {
				mark := okStyle.Render("ok  ")
				if !c.OK {
					mark = failStyle.Render("FAIL")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-14s %s\n", mark, c.Name, c.Detail)
			}
		}

		if !orchestrator.Healthy(checks) {
			return fmt.Errorf("one or more checks failed")
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().String("format", "text", "Output format: text or json")
}
