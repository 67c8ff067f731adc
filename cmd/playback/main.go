// Command playback runs timeline scripts: validation, unattended traces,
// determinism replay, scenario tests and an interactive terminal player.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/playback/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
