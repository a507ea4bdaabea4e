package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

func ChatCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.invoker.Ping(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), noticeStyle.Render(
					"Tool server not reachable at "+rt.invoker.BaseURL()+"; data lookups will fail."))
			}

			s := &chatSession{
				processor: rt.assistant,
				account:   strings.TrimSpace(account),
				sessionID: uuid.NewString(),
				now:       time.Now,
			}
			return s.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "initial account context (e.g. A001)")
	return cmd
}

type chatSession struct {
	processor Processor
	account   string
	sessionID string
	now       func() time.Time
}

// run reads one query per line until EOF, "exit", "quit" or "q".
// "account <id>" switches the account context and a bare "account" clears it.
func (s *chatSession) run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, bannerStyle.Render("NovaCRM Assistant - Interactive Mode"))
	if s.account != "" {
		fmt.Fprintln(out, "Account Context: "+s.account)
	}
	fmt.Fprintln(out, noticeStyle.Render("Type 'exit' or 'quit' to end session, 'account <id>' to set account context"))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch lower := strings.ToLower(line); {
		case line == "":
			continue
		case lower == "exit" || lower == "quit" || lower == "q":
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case lower == "account" || strings.HasPrefix(lower, "account "):
			s.account = strings.TrimSpace(line[len("account"):])
			if s.account == "" {
				fmt.Fprintln(out, "Account context cleared")
			} else {
				fmt.Fprintln(out, "Account context set to: "+s.account)
			}
			continue
		}

		res := s.processor.Process(ctx, validatex.NormalizeQuery(line), s.account, s.sessionID)
		fmt.Fprintln(out)
		fmt.Fprintln(out, FormatMarkdown(res, s.now()))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out, "\nGoodbye!")
	return nil
}
