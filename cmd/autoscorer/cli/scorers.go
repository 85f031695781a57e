package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

var (
	scorersWatchFlag         bool
	scorersWatchIntervalFlag time.Duration
	scorersTestParamsFlag    string
)

var scorersCmd = &cobra.Command{
	Use:   "scorers",
	Short: "Inspect and manage the scorer registry",
}

var scorersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered scorer",
	Args:  cobra.NoArgs,
	RunE:  runScorersList,
}

var scorersLoadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Dynamically load scorer implementations from a plugin file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScorersLoad,
}

var scorersReloadCmd = &cobra.Command{
	Use:   "reload <path>",
	Short: "Re-execute the load for a previously loaded scorer file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScorersReload,
}

var scorersTestCmd = &cobra.Command{
	Use:   "test <name> <workspace>",
	Short: "Invoke a registered scorer's Score directly against a workspace",
	Args:  cobra.ExactArgs(2),
	RunE:  runScorersTest,
}

func init() {
	rootCmd.AddCommand(scorersCmd)
	scorersCmd.AddCommand(scorersListCmd, scorersLoadCmd, scorersReloadCmd, scorersTestCmd)

	scorersLoadCmd.Flags().BoolVar(&scorersWatchFlag, "watch", false, "poll the file for changes and hot-reload")
	scorersLoadCmd.Flags().DurationVar(&scorersWatchIntervalFlag, "watch-interval", 0, "poll interval (default: config's hot_reload_interval)")
	scorersTestCmd.Flags().StringVar(&scorersTestParamsFlag, "params", "", "JSON object passed to the scorer as-is (meta.json's scorer_params are not merged in)")
}

func runScorersList(cmd *cobra.Command, args []string) error {
	return emitSuccess(registry.Default().List(), nil)
}

func runScorersLoad(cmd *cobra.Command, args []string) error {
	path := args[0]
	interval := scorersWatchIntervalFlag
	if interval == 0 {
		interval = config.Current().HotReloadInterval()
	}
	loaded, loadErr := registry.Default().LoadFile(path, scorersWatchFlag, interval)
	if loadErr != nil {
		return emitError(loadErr, map[string]interface{}{"path": path})
	}
	names := make([]string, 0, len(loaded))
	for name := range loaded {
		names = append(names, name)
	}
	return emitSuccess(names, map[string]interface{}{"path": path, "watching": scorersWatchFlag})
}

func runScorersReload(cmd *cobra.Command, args []string) error {
	path := args[0]
	if reloadErr := registry.Default().ReloadFile(path); reloadErr != nil {
		return emitError(reloadErr, map[string]interface{}{"path": path})
	}
	return emitSuccess(map[string]string{"reloaded": path}, nil)
}

func runScorersTest(cmd *cobra.Command, args []string) error {
	name, workspacePath := args[0], args[1]

	params, parseErr := parseParamsFlag(scorersTestParamsFlag)
	if parseErr != nil {
		return emitError(parseErr, map[string]interface{}{"scorer": name, "workspace": workspacePath})
	}

	impl, getErr := registry.Default().MustGet(name)
	if getErr != nil {
		return emitError(getErr, map[string]interface{}{"scorer": name})
	}

	result, scoreErr := impl.Score(context.Background(), workspacePath, params)
	if scoreErr != nil {
		wrapped := apierrors.Newf(apierrors.CodeScoreError, "scorer %q failed: %v", name, scoreErr).WithError(scoreErr)
		return emitError(wrapped, map[string]interface{}{"scorer": name, "workspace": workspacePath})
	}
	if !result.Succeeded() {
		return emitError(result.Error, map[string]interface{}{"scorer": name, "workspace": workspacePath})
	}
	return emitSuccess(result, map[string]interface{}{"scorer": name, "workspace": workspacePath})
}
