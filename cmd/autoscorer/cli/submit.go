package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
	"github.com/altsen/autoscorer-sub000/pkg/taskqueue"
)

var (
	submitActionFlag      string
	submitParamsFlag      string
	submitScorerFlag      string
	submitCallbackURLFlag string
)

var submitCmd = &cobra.Command{
	Use:   "submit <workspace>",
	Short: "Enqueue a run/score/pipeline action on the async task queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitActionFlag, "action", "", "one of run|score|pipeline (required)")
	submitCmd.Flags().StringVar(&submitParamsFlag, "params", "", "JSON object merged over meta.json's scorer_params")
	submitCmd.Flags().StringVar(&submitScorerFlag, "scorer", "", "override the scorer named in meta.json")
	submitCmd.Flags().StringVar(&submitCallbackURLFlag, "callback-url", "", "POST the terminal result envelope here")
	submitCmd.MarkFlagRequired("action")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	workspacePath := args[0]

	params, parseErr := parseParamsFlag(submitParamsFlag)
	if parseErr != nil {
		return emitError(parseErr, map[string]interface{}{"workspace": workspacePath})
	}

	action := taskqueue.Action(submitActionFlag)
	switch action {
	case taskqueue.ActionRun, taskqueue.ActionScore, taskqueue.ActionPipeline:
	default:
		err := apierrors.Newf(apierrors.CodeInvalidValue, "--action must be one of run|score|pipeline, got %q", submitActionFlag)
		return emitError(err, map[string]interface{}{"workspace": workspacePath})
	}

	cfg := config.Current()
	sched := buildScheduler(cfg, registry.Default())
	queue := buildQueue(cfg, sched)

	resp, err := queue.Submit(context.Background(), taskqueue.SubmitRequest{
		Workspace:   workspacePath,
		Action:      action,
		Params:      params,
		ScorerName:  submitScorerFlag,
		CallbackURL: submitCallbackURLFlag,
	})
	if err != nil {
		return emitError(apierrors.FromError(err), map[string]interface{}{"workspace": workspacePath})
	}
	return emitSuccess(resp, map[string]interface{}{"workspace": workspacePath})
}
