package main

import (
	"os"

	"budgetbot/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext()
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
