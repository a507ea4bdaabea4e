package pipelinenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

// RouteIntent sets the final intent. Under PolicyForce a gate escalation is
// kept and the classifier is not called.
func RouteIntent(
	ctx context.Context,
	in *statex.QueryState,
	classifier contractx.ClassificationOracle,
	policy EscalationPolicy,
) (*statex.QueryState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classification oracle is nil", contractx.ErrValidation)
	}

	if in.EscalationRequested && policy != PolicyRouter {
		in.Intent = statex.IntentEscalation
		log.Info().Str("policy", string(PolicyForce)).Msg("route_forced_escalation")
		return in, nil
	}

	token, err := classifier.Classify(ctx, in.CurrentQuery)
	if err != nil {
		in.Intent = statex.IntentEscalation
		in.AddError("Router error: %v", err)
		log.Warn().Err(err).Msg("route_classify_failed")
		return in, nil
	}

	intent, ok := statex.ParseIntent(token)
	if !ok {
		log.Warn().Str("token", token).Msg("route_unknown_intent")
		intent = statex.IntentEscalation
	}
	if in.EscalationRequested && intent != statex.IntentEscalation {
		log.Warn().Str("intent", intent.String()).Msg("route_overrode_safety_escalation")
	}

	in.Intent = intent
	log.Info().Str("intent", intent.String()).Msg("route_classified")
	return in, nil
}

// NextStage maps an intent onto the stage that gathers its evidence. Unset or
// unknown intents escalate.
func NextStage(intent statex.Intent) string {
	switch intent {
	case statex.IntentFAQ:
		return StageRetrieve
	case statex.IntentDataLookup:
		return StageDispatchTools
	default:
		return StageEscalate
	}
}

const (
	StageSafetyCheck   = "safety_check"
	StageRouteIntent   = "route_intent"
	StageRetrieve      = "retrieve"
	StageDispatchTools = "dispatch_tools"
	StageSynthesize    = "synthesize"
	StageValidate      = "validate"
	StageEscalate      = "escalate"
)
