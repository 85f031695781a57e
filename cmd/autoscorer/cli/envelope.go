// Package cli implements the autoscorer command tree (spec.md §6): five
// verbs (plus config/scorers management) that each print a structured JSON
// envelope to stdout and exit non-zero on failure. Grounded on the
// installer's cmd package (Lens/bootstrap/installer/internal/cmd): a
// package-level rootCmd, one file per verb registering itself via init,
// persistent flags for cross-cutting options (here --config instead of
// --kubeconfig/--namespace).
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

// envelope is the CLI's stdout contract (spec.md §6: "{status, data?,
// error?, timestamp, ...context}").
type envelope struct {
	Status    string                 `json:"status"`
	Data      interface{}            `json:"data,omitempty"`
	Error     *apierrors.Error       `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// emitSuccess prints a success envelope and returns nil, the RunE idiom used
// by every verb so the exit code stays 0.
func emitSuccess(data interface{}, context map[string]interface{}) error {
	return emit(envelope{Status: "success", Data: data, Timestamp: time.Now().UTC(), Context: context})
}

// emitError prints an error envelope and returns the error itself so
// cobra's own exit-code handling (main.go checks rootCmd.Execute's error)
// surfaces a non-zero process exit.
func emitError(err *apierrors.Error, context map[string]interface{}) error {
	if emitErr := emit(envelope{Status: "error", Error: err, Timestamp: time.Now().UTC(), Context: context}); emitErr != nil {
		return emitErr
	}
	return err
}

func emit(env envelope) error {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling CLI envelope: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
