package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

var (
	pipelineExecutorFlag string
	pipelineScorerFlag   string
	pipelineParamsFlag   string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <workspace>",
	Short: "Run validate -> execute -> score end to end",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().StringVar(&pipelineExecutorFlag, "executor", "", "pin the executor variant (local|container|cluster)")
	pipelineCmd.Flags().StringVar(&pipelineScorerFlag, "scorer", "", "override the scorer named in meta.json")
	pipelineCmd.Flags().StringVar(&pipelineParamsFlag, "params", "", "JSON object merged over meta.json's scorer_params")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	workspacePath := args[0]

	params, parseErr := parseParamsFlag(pipelineParamsFlag)
	if parseErr != nil {
		return emitError(parseErr, map[string]interface{}{"workspace": workspacePath})
	}

	cfg := config.Current()
	sched := buildScheduler(cfg, registry.Default())

	result := sched.PipelineWithExecutorOverride(context.Background(), workspacePath, params, pipelineScorerFlag, pipelineExecutorFlag)
	if !result.Succeeded() {
		return emitError(result.Error, map[string]interface{}{"workspace": workspacePath})
	}
	return emitSuccess(result, map[string]interface{}{"workspace": workspacePath})
}
