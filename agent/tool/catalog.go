package tool

import (
	"sort"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolAccountLookup = "account_lookup"
	ToolInvoiceStatus = "invoice_status"
	ToolTicketSummary = "ticket_summary"
	ToolUsageReport   = "usage_report"
	ToolKBSearch      = "kb_search"
)

type definition struct {
	name   string
	desc   string
	params map[string]*schema.ParameterInfo
}

var catalog = []definition{
	{
		name: ToolAccountLookup,
		desc: "Look up an account's company, plan, tier, billing cycle, CSM and renewal date.",
		params: map[string]*schema.ParameterInfo{
			"account_id": {Type: schema.String, Desc: "Account id such as A001"},
			"company":    {Type: schema.String, Desc: "Company name such as Company_001"},
		},
	},
	{
		name: ToolInvoiceStatus,
		desc: "Summarize invoices for an account, optionally for one billing period.",
		params: map[string]*schema.ParameterInfo{
			"account_id": {Type: schema.String, Desc: "Account id", Required: true},
			"period":     {Type: schema.String, Desc: "Billing period YYYY-MM"},
		},
	},
	{
		name: ToolTicketSummary,
		desc: "Summarize support tickets, open counts and SLA risks for an account.",
		params: map[string]*schema.ParameterInfo{
			"account_id":  {Type: schema.String, Desc: "Account id", Required: true},
			"window_days": {Type: schema.Integer, Desc: "Look-back window in days, 1 to 365"},
		},
	},
	{
		name: ToolUsageReport,
		desc: "Report API calls, email sends and storage for an account in a month.",
		params: map[string]*schema.ParameterInfo{
			"account_id": {Type: schema.String, Desc: "Account id", Required: true},
			"month":      {Type: schema.String, Desc: "Month YYYY-MM", Required: true},
		},
	},
	{
		name: ToolKBSearch,
		desc: "Search the product knowledge base.",
		params: map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Search text", Required: true},
			"k":     {Type: schema.Integer, Desc: "Number of results, 1 to 20"},
		},
	},
}

// Available lists tool names in catalog order.
func Available() []string {
	out := make([]string, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, d.name)
	}
	return out
}

func IsAvailable(name string) bool {
	for _, d := range catalog {
		if d.name == name {
			return true
		}
	}
	return false
}

type ParamDescriptor struct {
	Name     string          `json:"name"`
	Type     schema.DataType `json:"type"`
	Desc     string          `json:"description"`
	Required bool            `json:"required"`
}

type Descriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Params      []ParamDescriptor `json:"params"`
}

// Describe returns the catalog with parameters sorted by name.
func Describe() []Descriptor {
	out := make([]Descriptor, 0, len(catalog))
	for _, d := range catalog {
		params := make([]ParamDescriptor, 0, len(d.params))
		for name, info := range d.params {
			params = append(params, ParamDescriptor{
				Name:     name,
				Type:     info.Type,
				Desc:     info.Desc,
				Required: info.Required,
			})
		}
		sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
		out = append(out, Descriptor{Name: d.name, Description: d.desc, Params: params})
	}
	return out
}
