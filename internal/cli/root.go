package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "manimator <document.md>",
	Short: "Turn a markdown scene script into a Manim video",
	Long: `manimator reads a markdown document of "## Scene:" sections, asks an LLM to
write Manim code for each scene, renders every scene (repairing code that fails
to render), and concatenates the clips into one video with ffmpeg.

Configuration is read from ./manimator.yaml, then ~/.manimator/config.yaml.
Run history is kept under <media_dir>/runs and in the ledger (~/.manimator/manimator.db).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runDocument(cmd, args[0])
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to manimator.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.Flags().IntVar(&runOpts.maxRetries, "max-retries", -1, "repair cycles per scene after the first render (default from config)")
	rootCmd.Flags().BoolVar(&runOpts.noValidate, "no-validate", false, "skip the validation oracle")
	rootCmd.Flags().BoolVar(&runOpts.mock, "mock", false, "use the offline mock oracle instead of an LLM")
	rootCmd.Flags().StringVarP(&runOpts.output, "output", "o", "", "final video path (default from config)")
	rootCmd.Flags().StringVar(&runOpts.format, "format", "text", "summary format: text or json")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(serveCmd)
}
