package cli

import (
	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
)

var (
	cfgFile   string
	logLevel  string
	logJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "autoscorer",
	Short: "AutoScorer: validate, run and score ML competition submissions",
	Long: `autoscorer drives the validate -> execute -> score pipeline against a
workspace directory: a meta.json job spec, an input/ directory holding the
ground truth, and an output/ directory the executed container populates with
predictions.

Examples:
  autoscorer validate ./workspaces/job-42
  autoscorer pipeline ./workspaces/job-42 --executor container
  autoscorer scorers list`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Configure(logLevel, logJSON)
		_, err := config.Load(cfgFile)
		return err
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree; its error (if any) is also what main.go
// uses to decide the process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: search CWD, project root, user dir, system dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit structured JSON logs instead of text")
}
