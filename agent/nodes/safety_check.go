package pipelinenode

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	safetyx "github.com/tanpawarit/Chative-Support-Router/agent/safety"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

// SafetyCheck records sensitive topics, redacts PII from CurrentQuery, caps
// its length once redacted and reports injection markers. It never blocks
// the query.
func SafetyCheck(in *statex.QueryState, gate *safetyx.Gate) (*statex.QueryState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if gate == nil {
		return nil, fmt.Errorf("%w: safety gate is nil", contractx.ErrValidation)
	}

	topics := gate.CheckTopics(in.CurrentQuery)
	in.SensitiveTopics = topics.Topics
	if topics.ShouldEscalate {
		in.EscalationRequested = true
		in.Intent = statex.IntentEscalation
		in.AddEvidence(statex.EvidenceSafety, "sensitive_topic_detected:"+strings.Join(topics.Topics, ","))
		log.Info().Strs("topics", topics.Topics).Msg("safety_escalation_requested")
	} else if topics.Sensitive() {
		log.Debug().Strs("topics", topics.Topics).Msg("safety_sensitive_topic")
	}

	if pii := gate.Redact(in.CurrentQuery); pii.Found() {
		in.CurrentQuery = pii.Redacted
		in.PIITypes = pii.Types
		in.AddEvidence(statex.EvidenceSafety, "pii_redacted:"+strings.Join(pii.Types, ","))
		log.Info().Strs("pii_types", pii.Types).Msg("safety_pii_redacted")
	}
	in.CurrentQuery = validatex.TruncateQuery(in.CurrentQuery)

	input := gate.CheckInput(in.CurrentQuery)
	for _, issue := range input.Issues {
		in.AddError("Input safety: %s", issue)
	}
	if len(input.SensitiveTerms) > 0 {
		log.Debug().Strs("terms", input.SensitiveTerms).Msg("safety_sensitive_terms")
	}

	return in, nil
}
