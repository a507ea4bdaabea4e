package cli

import (
	"strings"
	"time"

	assistantx "github.com/tanpawarit/Chative-Support-Router/agent/assistant"
)

var rule = strings.Repeat("=", 80)

// FormatMarkdown renders a Result with Answer, Evidence and Notes sections.
// Evidence and Notes are omitted when empty.
func FormatMarkdown(res assistantx.Result, now time.Time) string {
	intent := res.Intent.String()
	if intent == "" {
		intent = "Unknown"
	}

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("NovaCRM Assistant Response\n")
	b.WriteString("Timestamp: " + now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString("Intent: " + intent + "\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("## Answer\n\n")
	b.WriteString(res.Answer + "\n\n")

	if len(res.Evidence) > 0 {
		b.WriteString("## Evidence\n\n")
		for _, e := range res.Evidence {
			b.WriteString("- " + e + "\n")
		}
		b.WriteString("\n")
	}

	if len(res.Errors) > 0 {
		b.WriteString("## Notes\n\n")
		b.WriteString("The following issues occurred during processing:\n")
		for _, e := range res.Errors {
			b.WriteString("- " + e + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(rule)
	return b.String()
}
