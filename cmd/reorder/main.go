// Command reorder runs drag gestures against stored item lists.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/reorder/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
