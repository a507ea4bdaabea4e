package tool

import (
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
)

func TestValidateParams(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		tool   string
		params contractx.Params
		want   []string
	}{
		{
			name:   "account by id",
			tool:   ToolAccountLookup,
			params: contractx.NewParams("account_id", "A001"),
		},
		{
			name:   "account by company",
			tool:   ToolAccountLookup,
			params: contractx.NewParams("company", "Company_007"),
		},
		{
			name:   "account missing both",
			tool:   ToolAccountLookup,
			params: contractx.Params{},
			want:   []string{"account_lookup requires either account_id or company parameter"},
		},
		{
			name:   "account id bad shape",
			tool:   ToolAccountLookup,
			params: contractx.NewParams("account_id", "A0001"),
			want:   []string{"Invalid account_id format: A0001"},
		},
		{
			name:   "invoice calendar-invalid period is shape-valid",
			tool:   ToolInvoiceStatus,
			params: contractx.NewParams("account_id", "A001", "period", "2025-13"),
		},
		{
			name:   "invoice missing account and bad period",
			tool:   ToolInvoiceStatus,
			params: contractx.NewParams("period", "Oct 2025"),
			want: []string{
				"invoice_status requires account_id parameter",
				"Invalid period format: Oct 2025",
			},
		},
		{
			name:   "ticket window in range",
			tool:   ToolTicketSummary,
			params: contractx.NewParams("account_id", "A001", "window_days", 30),
		},
		{
			name:   "ticket window as numeric string",
			tool:   ToolTicketSummary,
			params: contractx.NewParams("account_id", "A001", "window_days", "365"),
		},
		{
			name:   "ticket window out of range",
			tool:   ToolTicketSummary,
			params: contractx.NewParams("account_id", "A001", "window_days", 0),
			want:   []string{"window_days must be between 1 and 365"},
		},
		{
			name:   "ticket window not an integer",
			tool:   ToolTicketSummary,
			params: contractx.NewParams("account_id", "A001", "window_days", "soon"),
			want:   []string{"window_days must be an integer"},
		},
		{
			name:   "usage missing month",
			tool:   ToolUsageReport,
			params: contractx.NewParams("account_id", "A001"),
			want:   []string{"usage_report requires account_id and month parameters"},
		},
		{
			name:   "usage bad month",
			tool:   ToolUsageReport,
			params: contractx.NewParams("account_id", "A001", "month", "2025-9"),
			want:   []string{"Invalid month format: 2025-9"},
		},
		{
			name:   "kb search k too large",
			tool:   ToolKBSearch,
			params: contractx.NewParams("query", "sso", "k", 21),
			want:   []string{"k must be between 1 and 20"},
		},
		{
			name:   "kb search missing query",
			tool:   ToolKBSearch,
			params: contractx.NewParams("k", 5),
			want:   []string{"kb_search requires query parameter"},
		},
		{
			name:   "unknown tool has no schema",
			tool:   "refund_issue",
			params: contractx.Params{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ValidateParams(tc.tool, tc.params)
			if !reflect.DeepEqual(got.Errors, tc.want) {
				t.Fatalf("ValidateParams(%s) errors = %#v, want %#v", tc.tool, got.Errors, tc.want)
			}
			if got.Valid() != (len(tc.want) == 0) {
				t.Fatalf("Valid() = %v with errors %v", got.Valid(), got.Errors)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	want := []string{ToolAccountLookup, ToolInvoiceStatus, ToolTicketSummary, ToolUsageReport, ToolKBSearch}
	if got := Available(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Available() = %v, want %v", got, want)
	}
	if IsAvailable("math.evaluate") {
		t.Fatal("unexpected tool in catalog")
	}

	desc := Describe()
	if len(desc) != len(want) {
		t.Fatalf("Describe() len = %d", len(desc))
	}
	usage := desc[3]
	if usage.Name != ToolUsageReport || len(usage.Params) != 2 {
		t.Fatalf("unexpected usage descriptor: %#v", usage)
	}
	if usage.Params[0].Name != "account_id" || !usage.Params[1].Required {
		t.Fatalf("usage params not sorted or flags lost: %#v", usage.Params)
	}
}
