// Command chatplay turns chat events into keyboard and mouse input.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/chatplay/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
