package pipelinenode

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	toolx "github.com/tanpawarit/Chative-Support-Router/agent/tool"
)

const defaultUsageMonth = "2025-10"

var (
	accountIDToken = regexp.MustCompile(`^A\d+$`)
	companyMention = regexp.MustCompile(`(?i)company[_\s](\d+)`)
)

type deriveInput struct {
	raw     string
	lower   string
	account string
}

func (in deriveInput) mentions(words ...string) bool {
	for _, w := range words {
		if strings.Contains(in.lower, w) {
			return true
		}
	}
	return false
}

// derivationRule fires independently of the others. build may decline by
// returning false.
type derivationRule struct {
	name    string
	applies func(in deriveInput) bool
	build   func(in deriveInput) (contractx.ToolCall, bool)
}

var derivationRules = []derivationRule{
	{
		name: toolx.ToolInvoiceStatus,
		applies: func(in deriveInput) bool {
			return in.account != "" && in.mentions("invoice", "payment", "billing")
		},
		build: func(in deriveInput) (contractx.ToolCall, bool) {
			params := contractx.NewParams("account_id", in.account)
			switch {
			case in.mentions("2025-10", "october"):
				params = params.With("period", "2025-10")
			case in.mentions("2025-09", "september"):
				params = params.With("period", "2025-09")
			}
			return contractx.ToolCall{Tool: toolx.ToolInvoiceStatus, Params: params}, true
		},
	},
	{
		name: toolx.ToolTicketSummary,
		applies: func(in deriveInput) bool {
			return in.account != "" && in.mentions("ticket", "support")
		},
		build: func(in deriveInput) (contractx.ToolCall, bool) {
			return contractx.ToolCall{
				Tool:   toolx.ToolTicketSummary,
				Params: contractx.NewParams("account_id", in.account),
			}, true
		},
	},
	{
		name: toolx.ToolUsageReport,
		applies: func(in deriveInput) bool {
			return in.account != "" && in.mentions("usage", "api", "storage")
		},
		build: func(in deriveInput) (contractx.ToolCall, bool) {
			month := defaultUsageMonth
			switch {
			case in.mentions("2025-09", "september"):
				month = "2025-09"
			case in.mentions("2025-08", "august"):
				month = "2025-08"
			}
			return contractx.ToolCall{
				Tool:   toolx.ToolUsageReport,
				Params: contractx.NewParams("account_id", in.account, "month", month),
			}, true
		},
	},
	{
		name: toolx.ToolAccountLookup,
		applies: func(in deriveInput) bool {
			return in.mentions("account", "plan", "tier")
		},
		build: func(in deriveInput) (contractx.ToolCall, bool) {
			if in.account != "" {
				return accountLookup("account_id", in.account), true
			}
			if id, ok := findAccountID(in.raw); ok {
				return accountLookup("account_id", id), true
			}
			if m := companyMention.FindStringSubmatch(in.raw); m != nil {
				return accountLookup("company", companyName(m[1])), true
			}
			return contractx.ToolCall{}, false
		},
	},
}

// DeriveToolCalls maps a query onto tool calls by evaluating every rule in
// order. When nothing fires the account context, or failing that an account
// id in the query, falls back to an account lookup.
func DeriveToolCalls(query, accountContext string) []contractx.ToolCall {
	in := deriveInput{
		raw:     query,
		lower:   strings.ToLower(query),
		account: strings.TrimSpace(accountContext),
	}

	var calls []contractx.ToolCall
	for _, rule := range derivationRules {
		if !rule.applies(in) {
			continue
		}
		if call, ok := rule.build(in); ok {
			calls = append(calls, call)
		}
	}

	if len(calls) == 0 {
		if in.account != "" {
			calls = append(calls, accountLookup("account_id", in.account))
		} else if id, ok := findAccountID(in.raw); ok {
			calls = append(calls, accountLookup("account_id", id))
		}
	}
	return calls
}

func accountLookup(key, value string) contractx.ToolCall {
	return contractx.ToolCall{
		Tool:   toolx.ToolAccountLookup,
		Params: contractx.NewParams(key, value),
	}
}

// findAccountID returns the first whitespace token shaped like A<digits>,
// ignoring trailing punctuation.
func findAccountID(query string) (string, bool) {
	for _, word := range strings.Fields(query) {
		word = strings.TrimRight(word, ".,;:!?)")
		if accountIDToken.MatchString(word) {
			return word, true
		}
	}
	return "", false
}

func companyName(digits string) string {
	if n := len(digits); n < 3 {
		digits = strings.Repeat("0", 3-n) + digits
	}
	return "Company_" + digits
}
