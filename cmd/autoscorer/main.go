// Command autoscorer is the CLI front-end over the Workspace Manager,
// Scorer Registry, Executors and Scheduler: validate/run/score/pipeline a
// workspace, submit it to the async task queue, or inspect the scorer
// registry and configuration.
package main

import (
	"fmt"
	"os"

	"github.com/altsen/autoscorer-sub000/cmd/autoscorer/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
