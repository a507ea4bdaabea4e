package assistant

import (
	"time"

	nodex "github.com/tanpawarit/Chative-Support-Router/agent/nodes"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

type Outcome string

const (
	OutcomeAnswered  Outcome = "answered"
	OutcomeEscalated Outcome = "escalated"
)

// Result is always complete. Validation is set only for answered queries.
type Result struct {
	SessionID  string                  `json:"session_id,omitempty"`
	Query      string                  `json:"query"`
	Intent     statex.Intent           `json:"intent"`
	Answer     string                  `json:"answer"`
	Evidence   []string                `json:"evidence"`
	Errors     []string                `json:"errors"`
	Outcome    Outcome                 `json:"outcome"`
	Validation *nodex.ValidationReport `json:"validation,omitempty"`
	Duration   time.Duration           `json:"-"`
}

func (r Result) Escalated() bool {
	return r.Outcome == OutcomeEscalated
}

func resultFrom(sessionID string, out nodex.GraphOutput) Result {
	st := out.State
	outcome := OutcomeAnswered
	if out.Validation == nil {
		outcome = OutcomeEscalated
	}
	return Result{
		SessionID:  sessionID,
		Query:      st.CurrentQuery,
		Intent:     st.Intent,
		Answer:     st.Answer,
		Evidence:   nonNil(st.Evidence),
		Errors:     nonNil(st.Errors),
		Outcome:    outcome,
		Validation: out.Validation,
	}
}

// fallbackResult is returned when the graph itself fails. The query is
// escalated with whatever redaction already happened.
func fallbackResult(sessionID string, st *statex.QueryState, err error) Result {
	st.Intent = statex.IntentEscalation
	st.AddError("Pipeline error: %v", err)
	st.Answer = nodex.EscalationMessage(st.CurrentQuery)
	if !st.HasEvidence(statex.EvidenceEscalated) {
		st.AddEvidence(statex.EvidenceEscalated, "human_support_required")
	}
	return resultFrom(sessionID, nodex.GraphOutput{State: st})
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
