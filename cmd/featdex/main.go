// featdex is a fast search engine over a language's feature catalogue.
// Single binary: build the corpus once, search it from the CLI or the daemon.
package main

import (
	"fmt"
	"os"

	"github.com/corey/featdex/cmd/featdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
