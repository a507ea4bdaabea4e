package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	assistantx "github.com/tanpawarit/Chative-Support-Router/agent/assistant"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

type call struct {
	query, account, session string
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeProcessor) Process(ctx context.Context, query, accountContext, sessionID string) assistantx.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{query, accountContext, sessionID})
	return assistantx.Result{
		Query:    query,
		Intent:   statex.IntentDataLookup,
		Answer:   "answer for " + query,
		Evidence: []string{"tool:account_lookup:account_id"},
		Errors:   []string{},
		Outcome:  assistantx.OutcomeAnswered,
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)
}

func TestFormatMarkdown(t *testing.T) {
	t.Parallel()

	got := FormatMarkdown(assistantx.Result{
		Intent:   statex.IntentFAQ,
		Answer:   "Enable SAML.",
		Evidence: []string{"doc:sso.md"},
		Errors:   []string{"Hallucination check: Contains absolute statement: 'always'"},
	}, fixedNow())

	for _, want := range []string{
		"Timestamp: 2025-10-01 09:30:00\n",
		"Intent: FAQ\n",
		"## Answer\n\nEnable SAML.\n\n",
		"## Evidence\n\n- doc:sso.md\n\n",
		"## Notes\n\nThe following issues occurred during processing:\n- Hallucination check:",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatMarkdown() missing %q:\n%s", want, got)
		}
	}
}

func TestFormatMarkdownOmitsEmptySections(t *testing.T) {
	t.Parallel()

	got := FormatMarkdown(assistantx.Result{Answer: "hello"}, fixedNow())
	if strings.Contains(got, "## Evidence") || strings.Contains(got, "## Notes") {
		t.Fatalf("FormatMarkdown() rendered empty sections:\n%s", got)
	}
	if !strings.Contains(got, "Intent: Unknown") {
		t.Fatalf("FormatMarkdown() intent line:\n%s", got)
	}
}

func TestChatSessionCommands(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{}
	s := &chatSession{processor: p, account: "A001", sessionID: "sess", now: fixedNow}

	in := strings.NewReader(strings.Join([]string{
		"What plan am I on?",
		"",
		"account A002",
		"Show my invoices",
		"account",
		"How do I enable SSO?",
		"quit",
		"never processed",
	}, "\n"))
	var out bytes.Buffer

	if err := s.run(context.Background(), in, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	want := []call{
		{"What plan am I on?", "A001", "sess"},
		{"Show my invoices", "A002", "sess"},
		{"How do I enable SSO?", "", "sess"},
	}
	if len(p.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", p.calls, want)
	}
	for i := range want {
		if p.calls[i] != want[i] {
			t.Fatalf("call[%d] = %+v, want %+v", i, p.calls[i], want[i])
		}
	}

	text := out.String()
	for _, wantText := range []string{
		"Account context set to: A002",
		"Account context cleared",
		"answer for Show my invoices",
		"Goodbye!",
	} {
		if !strings.Contains(text, wantText) {
			t.Fatalf("output missing %q:\n%s", wantText, text)
		}
	}
}

func TestChatSessionEndsOnEOF(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{}
	s := &chatSession{processor: p, sessionID: "sess", now: fixedNow}

	var out bytes.Buffer
	if err := s.run(context.Background(), strings.NewReader("hello there"), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(p.calls) != 1 || !strings.Contains(out.String(), "Goodbye!") {
		t.Fatalf("calls = %+v output = %s", p.calls, out.String())
	}
}

func TestRootCmdRegistersCommands(t *testing.T) {
	t.Parallel()

	root := RootCmd()
	for _, name := range []string{"ask", "chat", "serve", "index"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("env") == nil {
		t.Fatal("--env flag missing")
	}
}
