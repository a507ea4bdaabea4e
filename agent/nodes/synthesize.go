package pipelinenode

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

// Synthesize turns FAQ context into prose and appends the evidence section.
// On oracle failure the collected answer is kept as is.
func Synthesize(
	ctx context.Context,
	in *statex.QueryState,
	synthesizer contractx.SynthesisOracle,
) (*statex.QueryState, error) {
	if in == nil {
		return nil, ErrNilState
	}

	if in.Intent == statex.IntentFAQ {
		if synthesizer == nil {
			in.AddError("Synthesis error: no synthesis oracle configured")
			return in, nil
		}
		answer, err := synthesizer.Synthesize(ctx, in.Answer, in.CurrentQuery)
		if err != nil {
			in.AddError("Synthesis error: %v", err)
			log.Warn().Err(err).Msg("synthesize_failed")
			return in, nil
		}
		in.Answer = answer
	}

	in.Answer = WithEvidenceSection(in.Answer, in.Evidence)
	return in, nil
}

const evidenceHeader = "\n\n**Evidence:**\n"

func WithEvidenceSection(answer string, evidence []string) string {
	lines := make([]string, len(evidence))
	for i, tag := range evidence {
		lines[i] = "- " + tag
	}
	return answer + evidenceHeader + strings.Join(lines, "\n")
}

// AnswerBody returns answer without the trailing evidence section.
func AnswerBody(answer string) string {
	body, _, _ := strings.Cut(answer, evidenceHeader)
	return body
}
