package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

var (
	scoreScorerFlag string
	scoreParamsFlag string
)

var scoreCmd = &cobra.Command{
	Use:   "score <workspace>",
	Short: "Score an already-populated output/ against input/ ground truth",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreScorerFlag, "scorer", "", "override the scorer named in meta.json")
	scoreCmd.Flags().StringVar(&scoreParamsFlag, "params", "", "JSON object merged over meta.json's scorer_params")
}

func runScore(cmd *cobra.Command, args []string) error {
	workspacePath := args[0]

	params, parseErr := parseParamsFlag(scoreParamsFlag)
	if parseErr != nil {
		return emitError(parseErr, map[string]interface{}{"workspace": workspacePath})
	}

	cfg := config.Current()
	sched := buildScheduler(cfg, registry.Default())

	result := sched.Score(context.Background(), workspacePath, params, scoreScorerFlag)
	if !result.Succeeded() {
		return emitError(result.Error, map[string]interface{}{"workspace": workspacePath})
	}
	return emitSuccess(result, map[string]interface{}{"workspace": workspacePath})
}

func parseParamsFlag(raw string) (map[string]interface{}, *apierrors.Error) {
	if raw == "" {
		return nil, nil
	}
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, apierrors.Newf(apierrors.CodeBadFormat, "--params is not a JSON object").WithError(err)
	}
	return params, nil
}
