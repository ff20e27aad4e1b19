// Command dyno is a performance profiling harness for the forc compiler.
// See internal/cli for flag definitions and internal/orchestrator for
// the top-level run.
package main

import (
	"os"

	"github.com/ourovoros-io/dyno/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
