package cli

import (
	"fmt"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/document"
)

var parseCmd = &cobra.Command{
	Use:   "parse <document.md>",
	Short: "Show the scenes a document parses into, without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		units, err := document.ParseFile(args[0])
		if err != nil {
			return err
		}

		if format == "json" {
			if units == nil {
				units = []document.Unit{}
			}
			return writeJSON(cmd, units)
		}

		if len(units) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scenes found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSCENE\tSLUG\tTARGET\tNARRATIVE\tVISUAL")
		for i, u := range units {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.1fs\t%d chars\t%d chars\n",
				i+1, truncate(u.ID, 40), u.Slug, u.TargetDuration,
				utf8.RuneCountInString(u.Narrative), utf8.RuneCountInString(u.Instruction))
		}
		return w.Flush()
	},
}

func init() {
	parseCmd.Flags().String("format", "text", "Output format: text or json")
}
