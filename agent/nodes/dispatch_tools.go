package pipelinenode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	toolx "github.com/tanpawarit/Chative-Support-Router/agent/tool"
)

const (
	noAccountContext      = "None specified"
	justificationMaxRunes = 100

	msgToolsFallback = "Unable to retrieve data. Please verify account information."
)

// DispatchTools justifies the lookup, derives tool calls from the query and
// formats what the tools return. Invalid calls are never invoked.
func DispatchTools(
	ctx context.Context,
	in *statex.QueryState,
	justifier contractx.JustificationOracle,
	invoker contractx.ToolInvoker,
) (out *statex.QueryState, err error) {
	if in == nil {
		return nil, ErrNilState
	}

	defer func() {
		if r := recover(); r != nil {
			dispatchFailed(in, fmt.Errorf("%w: panic: %v", contractx.ErrToolDispatch, r))
			out, err = in, nil
		}
	}()

	if justifier == nil || invoker == nil {
		dispatchFailed(in, fmt.Errorf("%w: tool dispatch is not configured", contractx.ErrToolDispatch))
		return in, nil
	}

	account := in.AccountContext
	if account == "" {
		account = noAccountContext
	}
	justification, jerr := justifier.Justify(ctx, in.CurrentQuery, account)
	if jerr != nil {
		dispatchFailed(in, jerr)
		return in, nil
	}
	in.AddEvidence(statex.EvidenceToolJustification, truncateRunes(justification, justificationMaxRunes))

	calls := DeriveToolCalls(in.CurrentQuery, in.AccountContext)
	results := make([]toolx.CallResult, 0, len(calls))
	for _, call := range calls {
		check := toolx.ValidateParams(call.Tool, call.Params)
		if !check.Valid() {
			log.Warn().Str("tool", call.Tool).Strs("errors", check.Errors).Msg("tool_params_invalid")
			results = append(results, toolx.CallResult{
				Call:   call,
				Result: contractx.ToolResult{"error": "Invalid parameters: " + strings.Join(check.Errors, ", ")},
			})
			continue
		}

		result := invoker.Invoke(ctx, call)
		if result == nil {
			result = contractx.ErrorResult("Empty tool response", "")
		}
		results = append(results, toolx.CallResult{Call: call, Result: result})
		in.AddEvidence(statex.EvidenceTool, call.Tool+":"+strings.Join(call.Params.Keys(), ","))
	}

	in.Answer = toolx.FormatResults(results)
	log.Info().Int("tools", len(calls)).Msg("dispatch_tools_done")
	return in, nil
}

func dispatchFailed(in *statex.QueryState, err error) {
	in.AddError("Tools error: %v", err)
	in.Answer = msgToolsFallback
	log.Warn().Err(err).Msg("dispatch_tools_failed")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
