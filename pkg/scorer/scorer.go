// Package scorer defines the scorer capability contract (spec.md §4.2:
// "a callable score(workspace, params) -> Result and a name attribute") and
// ships the reference scorers the end-to-end scenarios in spec.md §8 need.
package scorer

import (
	"context"

	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Scorer is the capability every registry entry's implementation satisfies.
type Scorer interface {
	// Name returns the stable, registry-unique scorer name.
	Name() string
	// Version returns the scorer's own version string, recorded into
	// Result.Versioning on every invocation.
	Version() string
	// Score evaluates the workspace's output/ against its input/ ground
	// truth and returns a canonical Result.
	Score(ctx context.Context, workspacePath string, params map[string]interface{}) (*model.Result, error)
}
