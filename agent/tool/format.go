package tool

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind enumerates the tools whose results have a dedicated rendering.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccountLookup
	KindInvoiceStatus
	KindTicketSummary
	KindUsageReport
)

func KindOf(toolName string) Kind {
	switch toolName {
	case ToolAccountLookup:
		return KindAccountLookup
	case ToolInvoiceStatus:
		return KindInvoiceStatus
	case ToolTicketSummary:
		return KindTicketSummary
	case ToolUsageReport:
		return KindUsageReport
	default:
		return KindUnknown
	}
}

// Formatter renders the fields of a successful result as bullet lines.
type Formatter func(r contractx.ToolResult) string

var formatters = map[Kind]Formatter{
	KindAccountLookup: formatAccountLookup,
	KindInvoiceStatus: formatInvoiceStatus,
	KindTicketSummary: formatTicketSummary,
	KindUsageReport:   formatUsageReport,
}

// CallResult pairs a tool call with what came back for it.
type CallResult struct {
	Call   contractx.ToolCall
	Result contractx.ToolResult
}

// Header renders "\n## Account Lookup\n" for "account_lookup". A Caser is
// stateful, so each call builds its own.
func Header(toolName string) string {
	caser := cases.Title(language.English)
	return "\n## " + caser.String(strings.ReplaceAll(toolName, "_", " ")) + "\n"
}

// FormatResults renders every result in order. Error-shaped results render as
// "Error: <message>" in place of the field list.
func FormatResults(results []CallResult) string {
	var b strings.Builder
	for _, cr := range results {
		b.WriteString(Header(cr.Call.Tool))
		if msg, isErr := cr.Result.ErrorMessage(); isErr {
			b.WriteString("Error: " + msg + "\n")
			continue
		}
		if f, ok := formatters[KindOf(cr.Call.Tool)]; ok {
			b.WriteString(f(cr.Result))
		}
	}
	return b.String()
}

func formatAccountLookup(r contractx.ToolResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Company: %s\n", r.Text("company", "N/A"))
	fmt.Fprintf(&b, "- Plan: %s (%s tier)\n", r.Text("plan", "N/A"), r.Text("tier", "N/A"))
	fmt.Fprintf(&b, "- Billing: %s\n", r.Text("billing_cycle", "N/A"))
	fmt.Fprintf(&b, "- CSM: %s\n", r.Text("csm", "N/A"))
	fmt.Fprintf(&b, "- Renewal: %s\n", r.Text("renewal_date", "N/A"))
	return b.String()
}

func formatInvoiceStatus(r contractx.ToolResult) string {
	summary := r.Object("summary")
	var b strings.Builder
	fmt.Fprintf(&b, "- Total Invoices: %s\n", count(r, "invoice_count"))
	fmt.Fprintf(&b, "- Total Amount: $%.2f\n", summary.Number("total"))
	fmt.Fprintf(&b, "- Paid: $%.2f\n", summary.Number("paid"))
	fmt.Fprintf(&b, "- Overdue: $%.2f\n", summary.Number("overdue"))
	fmt.Fprintf(&b, "- Pending: $%.2f\n", summary.Number("pending"))
	return b.String()
}

func formatTicketSummary(r contractx.ToolResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Total Tickets: %s\n", count(r, "total_tickets"))
	fmt.Fprintf(&b, "- Open: %s\n", count(r, "open_tickets"))
	fmt.Fprintf(&b, "- High Priority Open: %s\n", count(r, "high_priority_open"))
	if risks := r.List("sla_risks"); len(risks) > 0 {
		fmt.Fprintf(&b, "- SLA Risks: %d ticket(s)\n", len(risks))
	}
	return b.String()
}

func formatUsageReport(r contractx.ToolResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Month: %s\n", r.Text("month", "N/A"))
	fmt.Fprintf(&b, "- API Calls: %s\n", thousands(r.Number("api_calls")))
	fmt.Fprintf(&b, "- Email Sends: %s\n", thousands(r.Number("email_sends")))
	fmt.Fprintf(&b, "- Storage: %.2f GB\n", r.Number("storage_gb"))
	if warnings := r.List("warnings"); len(warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  - %v\n", w)
		}
	}
	return b.String()
}

// count renders whole numbers without a decimal part and defaults to 0.
func count(r contractx.ToolResult, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return "0"
	}
	if s, ok := v.(string); ok {
		return s
	}
	n := r.Number(key)
	if n == math.Trunc(n) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func thousands(n float64) string {
	if n == math.Trunc(n) {
		return humanize.Comma(int64(n))
	}
	return humanize.Commaf(n)
}
