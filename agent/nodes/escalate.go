package pipelinenode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

const escalationTemplate = `
I understand you need assistance with: "%s"

This request requires specialized support from our team. Here's what you can do:

**Immediate Actions:**
- Email: support@novacrm.com
- Phone: 1-800-NOVA-CRM
- Submit a ticket through your account portal

**What to Include:**
- Your account ID or company name
- Detailed description of your request
- Any relevant dates or transaction IDs
- Preferred contact method

**Expected Response Time:**
- High priority: 2 hours
- Standard: 24 hours

Our team will reach out shortly to assist you further.
`

const escalatedPayload = "human_support_required"

func EscalationMessage(query string) string {
	return fmt.Sprintf(escalationTemplate, query)
}

// Escalate writes the hand-off message and ends the run. A notifier failure
// is logged and does not change the answer.
func Escalate(
	ctx context.Context,
	in *statex.QueryState,
	notifier contractx.EscalationNotifier,
	now func() time.Time,
) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, ErrNilState
	}

	in.Intent = statex.IntentEscalation
	in.Answer = EscalationMessage(in.CurrentQuery)
	in.AddEvidence(statex.EvidenceEscalated, escalatedPayload)

	if notifier != nil {
		if now == nil {
			now = time.Now
		}
		err := notifier.NotifyEscalation(ctx, contractx.Escalation{
			SessionID:      in.SessionID,
			Query:          in.CurrentQuery,
			AccountContext: in.AccountContext,
			Topics:         append([]string(nil), in.SensitiveTopics...),
			Evidence:       append([]string(nil), in.Evidence...),
			At:             now().UTC(),
		})
		if err != nil {
			log.Warn().Err(err).Str("session_id", in.SessionID).Msg("escalation_notify_failed")
		}
	}

	log.Info().Str("session_id", in.SessionID).Strs("topics", in.SensitiveTopics).Msg("query_escalated")
	return GraphOutput{State: in}, nil
}
