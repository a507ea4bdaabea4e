package pipelinenode

import (
	"github.com/rs/zerolog/log"
	safetyx "github.com/tanpawarit/Chative-Support-Router/agent/safety"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

const msgIntentMismatch = "Answer-intent mismatch detected"

// Validate runs the output checks, folds their findings into Errors and
// sanitizes the answer last.
func Validate(
	in *statex.QueryState,
	validator *validatex.Validator,
	gate *safetyx.Gate,
) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, ErrNilState
	}
	if validator == nil {
		validator = validatex.New(nil)
	}

	report := &ValidationReport{}
	answer := in.Answer
	// Evidence tags name redacted PII types, so content scans skip them.
	body := AnswerBody(answer)

	report.Answer = validator.ValidateAnswer(answer, in.Intent, in.Evidence)
	if !report.Answer.Valid {
		in.Errors = append(in.Errors, report.Answer.Warnings...)
		in.Answer = answer + validatex.Disclaimer
	}

	report.Evidence = validator.ValidateEvidence(in.Evidence)
	if !report.Evidence.Valid {
		in.Errors = append(in.Errors, report.Evidence.Warnings...)
	}

	report.IntentMatch = validator.CheckIntentAnswerMatch(in.Intent, answer, in.Evidence)
	if !report.IntentMatch {
		in.AddError(msgIntentMismatch)
	}

	if gate != nil {
		report.OutputSafety = gate.CheckOutput(body)
		for _, issue := range report.OutputSafety {
			in.AddError("Output safety: %s", issue)
		}
	}

	if in.Intent == statex.IntentFAQ {
		report.Hallucination = validatex.CheckHallucinationIndicators(body, in.RetrievedContext)
		for _, w := range report.Hallucination {
			in.AddError("Hallucination check: %s", w)
		}
	}

	in.Answer = validatex.SanitizeOutput(in.Answer)

	log.Info().
		Bool("valid", report.Answer.Valid).
		Int("warnings", len(report.Answer.Warnings)).
		Msg("validate_done")
	return GraphOutput{State: in, Validation: report}, nil
}
