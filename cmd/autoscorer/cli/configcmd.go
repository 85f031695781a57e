package cli

import (
	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the layered configuration store",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration, minus defaults provenance",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the resolved configuration against basic sanity rules",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump every resolved key/value, same as show but named per spec",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the config-file search path and which file (if any) was used",
	Args:  cobra.NoArgs,
	RunE:  runConfigPaths,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd, configDumpCmd, configPathsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return emitSuccess(config.Current().AllSettings(), nil)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	problems := config.Current().Validate()
	if len(problems) > 0 {
		err := apierrors.Newf(apierrors.CodeConfigValidationError, "configuration failed validation").WithDetail("problems", problems)
		return emitError(err, nil)
	}
	return emitSuccess(map[string]interface{}{"valid": true}, nil)
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	return emitSuccess(map[string]interface{}{
		"search_paths":  cfg.SearchPaths(),
		"file_used":     cfg.ConfigFileUsed(),
	}, nil)
}
