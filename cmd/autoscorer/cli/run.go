package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

var runExecutorFlag string

var runCmd = &cobra.Command{
	Use:   "run <workspace>",
	Short: "Execute a workspace's container/job, without scoring",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runExecutorFlag, "executor", "", "pin the executor variant (local|container|cluster)")
}

func runRun(cmd *cobra.Command, args []string) error {
	workspacePath := args[0]
	cfg := config.Current()
	sched := buildScheduler(cfg, registry.Default())

	ctx := context.Background()
	report := sched.RunWithExecutorOverride(ctx, workspacePath, runExecutorFlag)
	if report.Error != nil {
		return emitError(report.Error, map[string]interface{}{"workspace": workspacePath})
	}
	return emitSuccess(report, map[string]interface{}{"workspace": workspacePath})
}
