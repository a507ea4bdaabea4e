package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	nodex "github.com/tanpawarit/Chative-Support-Router/agent/nodes"
	safetyx "github.com/tanpawarit/Chative-Support-Router/agent/safety"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
	metricsx "github.com/tanpawarit/Chative-Support-Router/pkg/metrics"
)

var ErrEmptyQuery = errors.New("query is empty")

// Deps are the collaborators the pipeline runs against. Gate, Validator,
// Notifier, Store and Metrics are optional.
type Deps struct {
	Gate        *safetyx.Gate
	Classifier  contractx.ClassificationOracle
	Retriever   contractx.KnowledgeRetriever
	Justifier   contractx.JustificationOracle
	Synthesizer contractx.SynthesisOracle
	Invoker     contractx.ToolInvoker
	Validator   *validatex.Validator
	Notifier    contractx.EscalationNotifier
	Store       statex.Store
	Metrics     *metricsx.Metrics
}

type Assistant struct {
	gate        *safetyx.Gate
	classifier  contractx.ClassificationOracle
	retriever   contractx.KnowledgeRetriever
	justifier   contractx.JustificationOracle
	synthesizer contractx.SynthesisOracle
	invoker     contractx.ToolInvoker
	validator   *validatex.Validator
	notifier    contractx.EscalationNotifier
	store       statex.Store
	metrics     *metricsx.Metrics

	policy    nodex.EscalationPolicy
	retrieveK int
	timeout   time.Duration

	graphRunner compose.Runnable[*statex.QueryState, nodex.GraphOutput]

	now func() time.Time
}

func New(deps Deps, cfg Config) (*Assistant, error) {
	if deps.Classifier == nil {
		return nil, errors.New("classification oracle is required")
	}
	if deps.Retriever == nil {
		return nil, errors.New("knowledge retriever is required")
	}
	if deps.Justifier == nil {
		return nil, errors.New("justification oracle is required")
	}
	if deps.Synthesizer == nil {
		return nil, errors.New("synthesis oracle is required")
	}
	if deps.Invoker == nil {
		return nil, errors.New("tool invoker is required")
	}

	policy, err := cfg.policy()
	if err != nil {
		return nil, err
	}

	gate := deps.Gate
	if gate == nil {
		if gate, err = safetyx.New(); err != nil {
			return nil, fmt.Errorf("load safety policy: %w", err)
		}
	}
	validator := deps.Validator
	if validator == nil {
		validator = validatex.New(nil)
	}

	retrieveK := cfg.RetrieveK
	if retrieveK <= 0 {
		retrieveK = nodex.DefaultRetrieveK
	}

	a := &Assistant{
		gate:        gate,
		classifier:  deps.Classifier,
		retriever:   deps.Retriever,
		justifier:   deps.Justifier,
		synthesizer: deps.Synthesizer,
		invoker:     deps.Invoker,
		validator:   validator,
		notifier:    deps.Notifier,
		store:       deps.Store,
		metrics:     deps.Metrics,
		policy:      policy,
		retrieveK:   retrieveK,
		timeout:     cfg.Timeout,
		now:         time.Now,
	}

	graphRunner, err := a.compilePipelineGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

// Process runs one query through the pipeline. It never fails: any error
// inside the graph turns into an escalated Result carrying the error.
func (a *Assistant) Process(ctx context.Context, query, accountContext, sessionID string) Result {
	start := a.now()
	sessionID = strings.TrimSpace(sessionID)

	st := statex.NewQueryState(query, accountContext)
	st.SessionID = sessionID

	var res Result
	switch {
	case strings.TrimSpace(query) == "":
		res = fallbackResult(sessionID, st, ErrEmptyQuery)
	default:
		res = a.run(ctx, sessionID, st)
	}
	res.Duration = a.now().Sub(start)

	a.observe(res)
	a.checkpoint(ctx, sessionID, st, res)

	log.Info().
		Str("session_id", sessionID).
		Str("intent", res.Intent.String()).
		Str("outcome", string(res.Outcome)).
		Int("evidence", len(res.Evidence)).
		Int("errors", len(res.Errors)).
		Dur("took", res.Duration).
		Msg("query_processed")
	return res
}

func (a *Assistant) run(ctx context.Context, sessionID string, st *statex.QueryState) (res Result) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = fallbackResult(sessionID, st, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := a.graphRunner.Invoke(ctx, st)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil || out.State == nil {
		if err == nil {
			err = errors.New("pipeline returned no state")
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("pipeline_failed")
		return fallbackResult(sessionID, st, err)
	}
	return resultFrom(sessionID, out)
}

func (a *Assistant) observe(res Result) {
	if a.metrics == nil {
		return
	}
	a.metrics.ObserveQuery(res.Intent.String(), string(res.Outcome), res.Duration)
	for _, tag := range res.Evidence {
		if rest, ok := strings.CutPrefix(tag, string(statex.EvidenceTool)+":"); ok {
			name, _, _ := strings.Cut(rest, ":")
			a.metrics.ObserveToolCall(name)
		}
	}
	for _, e := range res.Errors {
		kind, _, ok := strings.Cut(e, ":")
		if !ok {
			kind = "validation"
		}
		a.metrics.ObserveError(kind)
	}
}

// checkpoint stores the turn under its session. Failures are logged only.
func (a *Assistant) checkpoint(ctx context.Context, sessionID string, st *statex.QueryState, res Result) {
	if a.store == nil || sessionID == "" || strings.TrimSpace(st.CurrentQuery) == "" {
		return
	}
	turn := statex.NewTurn(sessionID, st, string(res.Outcome), a.now())
	if err := a.store.Append(context.WithoutCancel(ctx), turn); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("checkpoint_failed")
	}
}

func (a *Assistant) History(ctx context.Context, sessionID string) ([]statex.Turn, error) {
	if a.store == nil {
		return nil, statex.ErrSessionNotFound
	}
	return a.store.History(ctx, sessionID)
}

func (a *Assistant) ResetSession(ctx context.Context, sessionID string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Delete(ctx, sessionID)
}

func (a *Assistant) ValidationSummary() validatex.Summary {
	return a.validator.Stats().Summary()
}

func (a *Assistant) ValidatorStats() *validatex.Stats {
	return a.validator.Stats()
}
