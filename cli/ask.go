package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	assistantx "github.com/tanpawarit/Chative-Support-Router/agent/assistant"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

// Processor is the part of *assistant.Assistant the CLI drives.
type Processor interface {
	Process(ctx context.Context, query, accountContext, sessionID string) assistantx.Result
}

func AskCmd() *cobra.Command {
	var account, session string

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a single query and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res := rt.assistant.Process(cmd.Context(), validatex.NormalizeQuery(strings.Join(args, " ")), account, session)
			fmt.Fprintln(cmd.OutOrStdout(), FormatMarkdown(res, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "account ID for scoping the query (e.g. A001)")
	cmd.Flags().StringVarP(&session, "session", "s", "", "session ID to checkpoint the turn under")
	return cmd
}
