package cli

import (
	"github.com/spf13/cobra"

	"github.com/altsen/autoscorer-sub000/pkg/workspace"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workspace>",
	Short: "Validate a workspace directory against the JobSpec contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	spec, valErr := workspace.Validate(args[0])
	if valErr != nil {
		return emitError(valErr, map[string]interface{}{"workspace": args[0]})
	}
	return emitSuccess(spec, map[string]interface{}{"workspace": args[0]})
}
