package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/manimator/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage oracle prompt templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in prompt templates",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range prompt.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var templatesInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write the built-in templates to a directory for editing",
	Long: `Write the built-in prompt templates to dir (default: templates_dir from the
configuration, or ./templates). Existing files are left untouched. Point
templates_dir at the directory to make the oracle use the edited copies.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "templates"
		if len(args) == 1 {
			dir = args[0]
		} else if cfg, err := loadConfig(); err == nil && cfg.TemplatesDir != "" {
			dir = cfg.TemplatesDir
		}

		written, err := prompt.InstallBuiltinTemplates(dir)
		if err != nil {
			return err
		}
		if len(written) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "All templates already present in %s\n", dir)
			return nil
		}
		for _, p := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
		}
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesInitCmd)
}
