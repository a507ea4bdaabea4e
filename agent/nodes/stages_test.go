package pipelinenode

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	safetyx "github.com/tanpawarit/Chative-Support-Router/agent/safety"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

func TestSafetyCheckEscalatesAndRedacts(t *testing.T) {
	t.Parallel()

	raw := "Our lawyer says we were hacked, reach me at jo@example.com"
	st := statex.NewQueryState(raw, "")

	out, err := SafetyCheck(st, safetyx.MustNew())
	if err != nil {
		t.Fatalf("SafetyCheck() error = %v", err)
	}
	if !out.EscalationRequested || out.Intent != statex.IntentEscalation {
		t.Fatalf("escalation = %v intent = %s", out.EscalationRequested, out.Intent)
	}
	if out.Evidence[0] != "safety:sensitive_topic_detected:data_breach,legal" {
		t.Fatalf("evidence[0] = %q", out.Evidence[0])
	}
	if out.Evidence[1] != "safety:pii_redacted:email" {
		t.Fatalf("evidence[1] = %q", out.Evidence[1])
	}
	if strings.Contains(out.CurrentQuery, "jo@example.com") || !strings.Contains(out.CurrentQuery, "[REDACTED_EMAIL]") {
		t.Fatalf("CurrentQuery = %q", out.CurrentQuery)
	}
	if out.RawQuery != raw {
		t.Fatalf("RawQuery changed: %q", out.RawQuery)
	}
}

func TestSafetyCheckNonEscalatingTopic(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("I want a refund for last month", "A001")
	out, err := SafetyCheck(st, safetyx.MustNew())
	if err != nil {
		t.Fatalf("SafetyCheck() error = %v", err)
	}
	if out.EscalationRequested || out.Intent != statex.IntentUnset {
		t.Fatalf("escalation = %v intent = %s", out.EscalationRequested, out.Intent)
	}
	if len(out.SensitiveTopics) != 1 || out.SensitiveTopics[0] != "billing_dispute" {
		t.Fatalf("SensitiveTopics = %v", out.SensitiveTopics)
	}
	if len(out.Evidence) != 0 {
		t.Fatalf("Evidence = %v, want none", out.Evidence)
	}
}

func TestSafetyCheckInputInjection(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("render {{ .Secrets }} please", "")
	out, err := SafetyCheck(st, safetyx.MustNew())
	if err != nil {
		t.Fatalf("SafetyCheck() error = %v", err)
	}
	if len(out.Errors) != 1 || out.Errors[0] != "Input safety: Potential template injection detected" {
		t.Fatalf("Errors = %v", out.Errors)
	}
}

func TestSafetyCheckRedactsBeforeTruncating(t *testing.T) {
	t.Parallel()

	raw := strings.Repeat("a", 485) + " card 4111 1111 1111 1111 " + strings.Repeat("b", 40)
	st := statex.NewQueryState(raw, "")

	out, err := SafetyCheck(st, safetyx.MustNew())
	if err != nil {
		t.Fatalf("SafetyCheck() error = %v", err)
	}
	if len(out.PIITypes) != 1 || out.PIITypes[0] != "credit_card" {
		t.Fatalf("PIITypes = %v, want [credit_card]", out.PIITypes)
	}
	if strings.Contains(out.CurrentQuery, "4111") || strings.Contains(out.CurrentQuery, "1111") {
		t.Fatalf("card digits survived: %q", out.CurrentQuery[480:])
	}
	if n := len([]rune(out.CurrentQuery)); n > 500 {
		t.Fatalf("CurrentQuery runes = %d, want <= 500", n)
	}
}

func TestRouteIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		requested  bool
		policy     EscalationPolicy
		classifier *fakeClassifier
		want       statex.Intent
		wantCalls  int
		wantErr    string
	}{
		{name: "faq", classifier: &fakeClassifier{token: " FAQ\n"}, want: statex.IntentFAQ, wantCalls: 1},
		{name: "data lookup", classifier: &fakeClassifier{token: "DataLookup"}, want: statex.IntentDataLookup, wantCalls: 1},
		{name: "unknown token", classifier: &fakeClassifier{token: "Billing"}, want: statex.IntentEscalation, wantCalls: 1},
		{name: "oracle failure", classifier: &fakeClassifier{err: errors.New("timeout")}, want: statex.IntentEscalation, wantCalls: 1, wantErr: "Router error: timeout"},
		{name: "forced escalation skips oracle", requested: true, policy: PolicyForce, classifier: &fakeClassifier{token: "FAQ"}, want: statex.IntentEscalation},
		{name: "router policy overrides gate", requested: true, policy: PolicyRouter, classifier: &fakeClassifier{token: "FAQ"}, want: statex.IntentFAQ, wantCalls: 1},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			st := statex.NewQueryState("q", "")
			if tc.requested {
				st.EscalationRequested = true
				st.Intent = statex.IntentEscalation
			}
			out, err := RouteIntent(context.Background(), st, tc.classifier, tc.policy)
			if err != nil {
				t.Fatalf("RouteIntent() error = %v", err)
			}
			if out.Intent != tc.want {
				t.Fatalf("Intent = %s, want %s", out.Intent, tc.want)
			}
			if tc.classifier.calls != tc.wantCalls {
				t.Fatalf("classifier calls = %d, want %d", tc.classifier.calls, tc.wantCalls)
			}
			if tc.wantErr == "" && len(out.Errors) != 0 {
				t.Fatalf("Errors = %v, want none", out.Errors)
			}
			if tc.wantErr != "" && (len(out.Errors) != 1 || out.Errors[0] != tc.wantErr) {
				t.Fatalf("Errors = %v, want [%s]", out.Errors, tc.wantErr)
			}
		})
	}
}

func TestParseEscalationPolicy(t *testing.T) {
	t.Parallel()

	if p, err := ParseEscalationPolicy(""); err != nil || p != PolicyForce {
		t.Fatalf("ParseEscalationPolicy(\"\") = %s, %v", p, err)
	}
	if p, err := ParseEscalationPolicy(" Router "); err != nil || p != PolicyRouter {
		t.Fatalf("ParseEscalationPolicy(Router) = %s, %v", p, err)
	}
	if _, err := ParseEscalationPolicy("maybe"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("ParseEscalationPolicy(maybe) error = %v", err)
	}
}

func TestNextStage(t *testing.T) {
	t.Parallel()

	want := map[statex.Intent]string{
		statex.IntentFAQ:        StageRetrieve,
		statex.IntentDataLookup: StageDispatchTools,
		statex.IntentEscalation: StageEscalate,
		statex.IntentUnset:      StageEscalate,
	}
	for intent, stage := range want {
		if got := NextStage(intent); got != stage {
			t.Fatalf("NextStage(%s) = %s, want %s", intent, got, stage)
		}
	}
}

func TestRetrieveBuildsContext(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: []contractx.Document{
		{Source: "kb/sso_setup.md", Content: "Enable SAML."},
		{Source: "pipelines.md", Content: "Stages."},
	}}
	st := statex.NewQueryState("sso", "")

	out, err := Retrieve(context.Background(), st, retriever, 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if retriever.gotK != DefaultRetrieveK {
		t.Fatalf("k = %d, want %d", retriever.gotK, DefaultRetrieveK)
	}
	wantEvidence := []string{"doc:sso_setup.md", "doc:pipelines.md"}
	if strings.Join(out.Evidence, "|") != strings.Join(wantEvidence, "|") {
		t.Fatalf("Evidence = %v", out.Evidence)
	}
	wantAnswer := "[Document 1 - kb/sso_setup.md]\nEnable SAML.\n\n[Document 2 - pipelines.md]\nStages."
	if out.Answer != wantAnswer || out.RetrievedContext != wantAnswer {
		t.Fatalf("Answer = %q", out.Answer)
	}
}

func TestRetrieveFailure(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("sso", "")
	out, err := Retrieve(context.Background(), st, &fakeRetriever{err: errors.New("index offline")}, 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if out.Answer != msgRetrievalFallback {
		t.Fatalf("Answer = %q", out.Answer)
	}
	if len(out.Errors) != 1 || out.Errors[0] != "Retrieval error: index offline" {
		t.Fatalf("Errors = %v", out.Errors)
	}
	if len(out.Evidence) != 0 {
		t.Fatalf("Evidence = %v", out.Evidence)
	}
}

func accountResult() contractx.ToolResult {
	return contractx.ToolResult{
		"account_id":    "A001",
		"company":       "Company_001",
		"plan":          "Enterprise",
		"tier":          "Gold",
		"billing_cycle": "annual",
		"csm":           "Dana Wu",
		"renewal_date":  "2026-01-15",
	}
}

func TestDispatchToolsAccountLookup(t *testing.T) {
	t.Parallel()

	justifier := &fakeJustifier{text: strings.Repeat("j", 150)}
	invoker := &fakeInvoker{results: map[string]contractx.ToolResult{"account_lookup": accountResult()}}
	st := statex.NewQueryState("What plan is account A001 on?", "A001")

	out, err := DispatchTools(context.Background(), st, justifier, invoker)
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	if justifier.gotAccount != "A001" {
		t.Fatalf("justifier account = %q", justifier.gotAccount)
	}
	want := []string{"tool_justification:" + strings.Repeat("j", 100), "tool:account_lookup:account_id"}
	if strings.Join(out.Evidence, "|") != strings.Join(want, "|") {
		t.Fatalf("Evidence = %v", out.Evidence)
	}
	for _, field := range []string{"## Account Lookup", "- Company: Company_001", "- Plan: Enterprise (Gold tier)", "- Billing: annual", "- CSM: Dana Wu", "- Renewal: 2026-01-15"} {
		if !strings.Contains(out.Answer, field) {
			t.Fatalf("Answer missing %q:\n%s", field, out.Answer)
		}
	}
	if len(out.Errors) != 0 {
		t.Fatalf("Errors = %v", out.Errors)
	}
}

func TestDispatchToolsInvalidParamsNotInvoked(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{}
	st := statex.NewQueryState("What plan am I on?", "B12")

	out, err := DispatchTools(context.Background(), st, &fakeJustifier{text: "needs account"}, invoker)
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	if len(invoker.calls) != 0 {
		t.Fatalf("invoker called %d times, want 0", len(invoker.calls))
	}
	if !strings.Contains(out.Answer, "Error: Invalid parameters: Invalid account_id format: B12") {
		t.Fatalf("Answer = %q", out.Answer)
	}
	for _, tag := range out.Evidence {
		if strings.HasPrefix(tag, "tool:") {
			t.Fatalf("unexpected tool evidence %q", tag)
		}
	}
}

func TestDispatchToolsErrorResultStillTagged(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{}
	st := statex.NewQueryState("open tickets", "A009")

	out, err := DispatchTools(context.Background(), st, &fakeJustifier{text: "tickets"}, invoker)
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	if out.Evidence[len(out.Evidence)-1] != "tool:ticket_summary:account_id" {
		t.Fatalf("Evidence = %v", out.Evidence)
	}
	if !strings.Contains(out.Answer, "Error: Account not found") {
		t.Fatalf("Answer = %q", out.Answer)
	}
}

func TestDispatchToolsJustificationFailure(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{}
	st := statex.NewQueryState("invoice", "A001")

	out, err := DispatchTools(context.Background(), st, &fakeJustifier{err: errors.New("model down")}, invoker)
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	if out.Answer != msgToolsFallback {
		t.Fatalf("Answer = %q", out.Answer)
	}
	if len(out.Errors) != 1 || out.Errors[0] != "Tools error: model down" {
		t.Fatalf("Errors = %v", out.Errors)
	}
	if len(invoker.calls) != 0 {
		t.Fatal("tools invoked after justification failure")
	}
}

func TestDispatchToolsRecoversPanic(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("usage", "A001")
	out, err := DispatchTools(context.Background(), st, &fakeJustifier{text: "usage"}, &fakeInvoker{panics: true})
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	if out.Answer != msgToolsFallback {
		t.Fatalf("Answer = %q", out.Answer)
	}
	if len(out.Errors) != 1 || !strings.HasPrefix(out.Errors[0], "Tools error: ") {
		t.Fatalf("Errors = %v", out.Errors)
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	synth := &fakeSynthesizer{text: "Open Settings > Security."}
	st := statex.NewQueryState("How do I enable SSO?", "")
	st.Intent = statex.IntentFAQ
	st.Answer = "[Document 1 - sso.md]\nEnable SAML."
	st.AddEvidence(statex.EvidenceDoc, "sso.md")

	out, err := Synthesize(context.Background(), st, synth)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if synth.gotContext != "[Document 1 - sso.md]\nEnable SAML." || synth.gotQuestion != "How do I enable SSO?" {
		t.Fatalf("oracle got %q / %q", synth.gotContext, synth.gotQuestion)
	}
	if out.Answer != "Open Settings > Security.\n\n**Evidence:**\n- doc:sso.md" {
		t.Fatalf("Answer = %q", out.Answer)
	}
}

func TestSynthesizeDataLookupSkipsOracle(t *testing.T) {
	t.Parallel()

	synth := &fakeSynthesizer{text: "unused"}
	st := statex.NewQueryState("plan?", "A001")
	st.Intent = statex.IntentDataLookup
	st.Answer = "\n## Account Lookup\n- Plan: Pro\n"
	st.AddEvidence(statex.EvidenceToolJustification, "why")
	st.AddEvidence(statex.EvidenceTool, "account_lookup:account_id")

	out, err := Synthesize(context.Background(), st, synth)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if synth.gotQuestion != "" {
		t.Fatal("synthesis oracle called for DataLookup")
	}
	want := "\n## Account Lookup\n- Plan: Pro\n\n\n**Evidence:**\n- tool_justification:why\n- tool:account_lookup:account_id"
	if out.Answer != want {
		t.Fatalf("Answer = %q", out.Answer)
	}
}

func TestSynthesizeFailureKeepsAnswer(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("q", "")
	st.Intent = statex.IntentFAQ
	st.Answer = "context"

	out, err := Synthesize(context.Background(), st, &fakeSynthesizer{err: errors.New("rate limited")})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.Answer != "context" {
		t.Fatalf("Answer = %q", out.Answer)
	}
	if len(out.Errors) != 1 || out.Errors[0] != "Synthesis error: rate limited" {
		t.Fatalf("Errors = %v", out.Errors)
	}
}

func TestEscalate(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{err: errors.New("queue down")}
	st := statex.NewQueryState("We are being sued", "A001")
	st.SessionID = "s-1"
	st.SensitiveTopics = []string{"legal"}
	fixed := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	out, err := Escalate(context.Background(), st, notifier, func() time.Time { return fixed })
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if out.Validation != nil {
		t.Fatal("escalation carries a validation report")
	}
	answer := out.State.Answer
	for _, header := range []string{`"We are being sued"`, "**Immediate Actions:**", "**What to Include:**", "**Expected Response Time:**", "High priority: 2 hours", "Standard: 24 hours"} {
		if !strings.Contains(answer, header) {
			t.Fatalf("answer missing %q", header)
		}
	}
	if out.State.Evidence[len(out.State.Evidence)-1] != "escalated:human_support_required" {
		t.Fatalf("Evidence = %v", out.State.Evidence)
	}
	if len(out.State.Errors) != 0 {
		t.Fatalf("notifier failure leaked into Errors: %v", out.State.Errors)
	}
	if len(notifier.got) != 1 || notifier.got[0].SessionID != "s-1" || !notifier.got[0].At.Equal(fixed) {
		t.Fatalf("notification = %#v", notifier.got)
	}
}

func TestValidateAppendsDisclaimerAndSanitizes(t *testing.T) {
	t.Parallel()

	stats := validatex.NewStats()
	st := statex.NewQueryState("q", "")
	st.Intent = statex.IntentDataLookup
	st.Answer = "<script>"

	out, err := Validate(st, validatex.New(stats), safetyx.MustNew())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if out.Validation == nil || out.Validation.Passed() {
		t.Fatal("expected failed validation")
	}
	if !strings.HasSuffix(out.State.Answer, strings.TrimSpace(validatex.Disclaimer)) {
		t.Fatalf("Answer = %q", out.State.Answer)
	}
	if !strings.HasPrefix(out.State.Answer, "[script]") {
		t.Fatalf("Answer not sanitized: %q", out.State.Answer)
	}
	joined := strings.Join(out.State.Errors, "|")
	for _, want := range []string{"Answer is too short or empty", "No evidence provided", "No evidence collected", msgIntentMismatch} {
		if !strings.Contains(joined, want) {
			t.Fatalf("Errors missing %q: %v", want, out.State.Errors)
		}
	}
	if stats.Total() != 1 || stats.Invalid() != 1 {
		t.Fatalf("stats = %d/%d", stats.Total(), stats.Invalid())
	}
}

func TestValidateFAQHallucinationAndOutputSafety(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("pricing", "")
	st.Intent = statex.IntentFAQ
	st.RetrievedContext = "[Document 1 - pricing.md]\nPlans are billed monthly."
	st.AddEvidence(statex.EvidenceDoc, "pricing.md")
	st.Answer = "The Pro plan costs $49 per month and your password is reset monthly. Sources: pricing.md"

	out, err := Validate(st, validatex.New(nil), safetyx.MustNew())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	joined := strings.Join(out.State.Errors, "|")
	if !strings.Contains(joined, "Hallucination check: Answer contains specific prices not found in context") {
		t.Fatalf("Errors = %v", out.State.Errors)
	}
	if !strings.Contains(joined, "Output safety: Output may contain sensitive information: password") {
		t.Fatalf("Errors = %v", out.State.Errors)
	}
	if !out.Validation.IntentMatch {
		t.Fatal("IntentMatch = false, want true")
	}
}

func TestValidateOutputSafetyIgnoresEvidenceSection(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("What plan is account A001 on? my ssn is [REDACTED_SSN]", "A001")
	st.Intent = statex.IntentDataLookup
	st.AddEvidence(statex.EvidenceSafety, "pii_redacted:ssn")
	st.AddEvidence(statex.EvidenceTool, "account_lookup:account_id")
	st.Answer = WithEvidenceSection("Account A001 is on the Enterprise plan with Gold support.", st.Evidence)

	out, err := Validate(st, validatex.New(nil), safetyx.MustNew())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for _, e := range out.State.Errors {
		if strings.HasPrefix(e, "Output safety:") {
			t.Fatalf("evidence tags scanned as output: %v", out.State.Errors)
		}
	}
	if len(out.Validation.OutputSafety) != 0 {
		t.Fatalf("OutputSafety = %v", out.Validation.OutputSafety)
	}
	if !strings.Contains(out.State.Answer, "- safety:pii_redacted:ssn") {
		t.Fatalf("evidence section dropped: %q", out.State.Answer)
	}
}

func TestValidateOutputSafetyStillScansBody(t *testing.T) {
	t.Parallel()

	st := statex.NewQueryState("q", "A001")
	st.Intent = statex.IntentDataLookup
	st.AddEvidence(statex.EvidenceTool, "account_lookup:account_id")
	st.Answer = WithEvidenceSection("The card on file is 4111 1111 1111 1111 for account A001.", st.Evidence)

	out, err := Validate(st, validatex.New(nil), safetyx.MustNew())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(out.Validation.OutputSafety) == 0 {
		t.Fatalf("card number in answer body not flagged: %v", out.State.Errors)
	}
}

func TestAnswerBody(t *testing.T) {
	t.Parallel()

	full := WithEvidenceSection("Plan: Enterprise", []string{"safety:pii_redacted:ssn"})
	if got := AnswerBody(full); got != "Plan: Enterprise" {
		t.Fatalf("AnswerBody() = %q", got)
	}
	if got := AnswerBody("no section"); got != "no section" {
		t.Fatalf("AnswerBody() = %q", got)
	}
}
