package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"budgetbot/internal/cli"
)

const cliSession = "cli"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the budget assistant on stdin",
	Long:  "Interactive conversation through the full engine. Type /reset to start over and /quit to leave.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd.Context(), func(rt *cli.Runtime) error {
			return chatLoop(cmd.Context(), rt.Engine, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// conversation is implemented by chat.Engine.
type conversation interface {
	Reply(ctx context.Context, sessionID, text string) string
	Reset(ctx context.Context, sessionID string) string
}

func chatLoop(ctx context.Context, engine conversation, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			fmt.Fprintln(out, engine.Reset(ctx, cliSession))
			continue
		}
		fmt.Fprintln(out, engine.Reply(ctx, cliSession, line))
	}
}
