package tool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
)

var (
	accountIDPattern = regexp.MustCompile(`^A\d{3}$`)
	yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// ParamCheck is valid iff Errors is empty.
type ParamCheck struct {
	Errors []string
}

func (c ParamCheck) Valid() bool {
	return len(c.Errors) == 0
}

type paramRule func(p contractx.Params) []string

var paramRules = map[string]paramRule{
	ToolAccountLookup: func(p contractx.Params) []string {
		var errs []string
		if !p.Has("account_id") && !p.Has("company") {
			errs = append(errs, "account_lookup requires either account_id or company parameter")
		}
		if p.Has("account_id") {
			if id := p.String("account_id"); !accountIDPattern.MatchString(id) {
				errs = append(errs, "Invalid account_id format: "+id)
			}
		}
		return errs
	},
	ToolInvoiceStatus: func(p contractx.Params) []string {
		var errs []string
		if !p.Has("account_id") {
			errs = append(errs, "invoice_status requires account_id parameter")
		}
		if p.Has("period") {
			if period := p.String("period"); !yearMonthPattern.MatchString(period) {
				errs = append(errs, "Invalid period format: "+period)
			}
		}
		return errs
	},
	ToolTicketSummary: func(p contractx.Params) []string {
		var errs []string
		if !p.Has("account_id") {
			errs = append(errs, "ticket_summary requires account_id parameter")
		}
		if p.Has("window_days") {
			errs = append(errs, checkIntRange(p, "window_days", 1, 365)...)
		}
		return errs
	},
	ToolUsageReport: func(p contractx.Params) []string {
		var errs []string
		if !p.Has("account_id") || !p.Has("month") {
			errs = append(errs, "usage_report requires account_id and month parameters")
		}
		if p.Has("month") {
			if month := p.String("month"); !yearMonthPattern.MatchString(month) {
				errs = append(errs, "Invalid month format: "+month)
			}
		}
		return errs
	},
	ToolKBSearch: func(p contractx.Params) []string {
		var errs []string
		if !p.Has("query") {
			errs = append(errs, "kb_search requires query parameter")
		}
		if p.Has("k") {
			errs = append(errs, checkIntRange(p, "k", 1, 20)...)
		}
		return errs
	},
}

// ValidateParams checks a call against the per-tool schema. Period and month
// are checked for shape only, so "2025-13" passes. Tools without a schema
// pass; the invoker rejects unknown names.
func ValidateParams(toolName string, params contractx.Params) ParamCheck {
	rule, ok := paramRules[toolName]
	if !ok {
		return ParamCheck{}
	}
	return ParamCheck{Errors: rule(params)}
}

func checkIntRange(p contractx.Params, key string, lo, hi int) []string {
	n, ok := asInt(p, key)
	if !ok {
		return []string{key + " must be an integer"}
	}
	if n < lo || n > hi {
		return []string{fmt.Sprintf("%s must be between %d and %d", key, lo, hi)}
	}
	return nil
}

func asInt(p contractx.Params, key string) (int, bool) {
	v, _ := p.Get(key)
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
