package pipelinenode

import (
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

var ErrNilState = fmt.Errorf("%w: query state is nil", contractx.ErrValidation)

// EscalationPolicy decides who has the last word when the safety gate asks
// for escalation.
type EscalationPolicy string

const (
	// PolicyForce escalates without consulting the classifier.
	PolicyForce EscalationPolicy = "force"
	// PolicyRouter lets the classifier overwrite the gate's tentative intent.
	PolicyRouter EscalationPolicy = "router"
)

var ErrUnknownPolicy = errors.New("unknown escalation policy")

func ParseEscalationPolicy(s string) (EscalationPolicy, error) {
	switch EscalationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyForce:
		return PolicyForce, nil
	case PolicyRouter:
		return PolicyRouter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// GraphOutput is what both terminal stages hand back. Validation is nil for
// escalations.
type GraphOutput struct {
	State      *statex.QueryState
	Validation *ValidationReport
}

type ValidationReport struct {
	Answer        validatex.AnswerCheck   `json:"answer"`
	Evidence      validatex.EvidenceCheck `json:"evidence"`
	IntentMatch   bool                    `json:"intent_match"`
	OutputSafety  []string                `json:"output_safety,omitempty"`
	Hallucination []string                `json:"hallucination,omitempty"`
}

// Passed reports whether the answer check succeeded. Other findings are
// advisory and only surface through Issues.
func (r *ValidationReport) Passed() bool {
	return r != nil && r.Answer.Valid
}

func (r *ValidationReport) Issues() []string {
	if r == nil {
		return nil
	}
	issues := make([]string, 0, len(r.Answer.Warnings)+len(r.Evidence.Warnings)+len(r.OutputSafety)+len(r.Hallucination)+1)
	issues = append(issues, r.Answer.Warnings...)
	issues = append(issues, r.Evidence.Warnings...)
	if !r.IntentMatch {
		issues = append(issues, msgIntentMismatch)
	}
	issues = append(issues, r.OutputSafety...)
	issues = append(issues, r.Hallucination...)
	return issues
}
