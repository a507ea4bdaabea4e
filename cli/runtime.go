package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	assistantx "github.com/tanpawarit/Chative-Support-Router/agent/assistant"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	knowledgex "github.com/tanpawarit/Chative-Support-Router/agent/knowledge"
	llmx "github.com/tanpawarit/Chative-Support-Router/agent/llm"
	notifyx "github.com/tanpawarit/Chative-Support-Router/agent/notify"
	oraclex "github.com/tanpawarit/Chative-Support-Router/agent/oracle"
	promptx "github.com/tanpawarit/Chative-Support-Router/agent/prompt"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	toolx "github.com/tanpawarit/Chative-Support-Router/agent/tool"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
	configx "github.com/tanpawarit/Chative-Support-Router/pkg/config"
	metricsx "github.com/tanpawarit/Chative-Support-Router/pkg/metrics"
	qstashx "github.com/tanpawarit/Chative-Support-Router/pkg/qstash"
)

const (
	backendNone     = "none"
	backendMemory   = "memory"
	backendUpstash  = "upstash"
	backendPostgres = "postgres"
)

type checkpointConfig struct {
	Backend  string        `split_words:"true" default:"memory" validate:"oneof=none memory upstash postgres"`
	MaxTurns int           `split_words:"true" default:"50" validate:"gte=0"`
	TTL      time.Duration `default:"168h"`
}

// runtime holds everything a command needs to answer queries.
type runtime struct {
	assistant *assistantx.Assistant
	invoker   *toolx.RESTInvoker
	index     *knowledgex.Index
	registry  *prometheus.Registry
	backend   string
	closers   []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Warn().Err(err).Msg("runtime_close_failed")
		}
	}
}

func buildRuntime(ctx context.Context) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, err
	}
	oracles, err := oraclex.NewSet(ctx, *llmCfg, promptx.LoadPromptSet())
	if err != nil {
		return nil, fmt.Errorf("build oracles: %w", err)
	}

	if rt.index, err = loadKnowledge(ctx); err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, rt.index.Close)

	toolCfg, err := configx.New[toolx.InvokerConfig]("TOOLS")
	if err != nil {
		return nil, err
	}
	if rt.invoker, err = toolx.NewRESTInvoker(*toolCfg); err != nil {
		return nil, err
	}

	store, backend, closeStore, err := openCheckpointStore(ctx)
	if err != nil {
		return nil, err
	}
	rt.backend = backend
	if closeStore != nil {
		rt.closers = append(rt.closers, closeStore)
	}

	notifier, err := openNotifier()
	if err != nil {
		return nil, err
	}

	pipeCfg, err := configx.New[assistantx.Config]("PIPELINE")
	if err != nil {
		return nil, err
	}

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	stats := validatex.NewStats()
	metricsx.RegisterValidatorStats(rt.registry, stats)

	rt.assistant, err = assistantx.New(assistantx.Deps{
		Classifier:  oracles.Classifier,
		Retriever:   rt.index,
		Justifier:   oracles.Justifier,
		Synthesizer: oracles.Synthesizer,
		Invoker:     rt.invoker,
		Validator:   validatex.New(stats),
		Notifier:    notifier,
		Store:       store,
		Metrics:     metricsx.New(rt.registry),
	}, *pipeCfg)
	if err != nil {
		return nil, fmt.Errorf("build assistant: %w", err)
	}

	log.Info().
		Str("model", llmCfg.Model).
		Str("tool_server", rt.invoker.BaseURL()).
		Str("checkpoint", rt.backend).
		Int("kb_chunks", rt.index.Chunks()).
		Msg("runtime_ready")
	return rt, nil
}

func loadKnowledge(ctx context.Context) (*knowledgex.Index, error) {
	cfg, err := configx.New[knowledgex.Config]("KB")
	if err != nil {
		return nil, err
	}
	index, err := knowledgex.NewIndex(*cfg)
	if err != nil {
		return nil, err
	}
	n, err := index.LoadDir(ctx, cfg.Dir)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("load knowledge base %s: %w", cfg.Dir, err)
	}
	log.Info().Str("dir", cfg.Dir).Int("chunks", n).Msg("knowledge_base_loaded")
	return index, nil
}

// openCheckpointStore returns a nil Store for the "none" backend.
func openCheckpointStore(ctx context.Context) (statex.Store, string, func() error, error) {
	cfg, err := configx.New[checkpointConfig]("CHECKPOINT")
	if err != nil {
		return nil, "", nil, err
	}

	switch cfg.Backend {
	case backendNone:
		return nil, backendNone, nil, nil
	case backendMemory:
		return statex.NewMemoryStore(cfg.MaxTurns), backendMemory, nil, nil
	case backendUpstash:
		redisCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, "", nil, err
		}
		store, err := statex.NewUpstashRedisStore(*redisCfg,
			statex.WithTTL(cfg.TTL),
			statex.WithMaxTurns(cfg.MaxTurns),
		)
		if err != nil {
			return nil, "", nil, err
		}
		return store, backendUpstash, nil, nil
	case backendPostgres:
		pgCfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, "", nil, err
		}
		store, err := statex.NewPostgresStore(ctx, *pgCfg)
		if err != nil {
			return nil, "", nil, err
		}
		return store, backendPostgres, store.Close, nil
	default:
		return nil, "", nil, errors.New("unknown checkpoint backend: " + cfg.Backend)
	}
}

func openNotifier() (contractx.EscalationNotifier, error) {
	cfg, err := configx.New[notifyx.Config]("ESCALATION")
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return notifyx.Noop{}, nil
	}
	qcfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	client, err := qstashx.NewClient(*qcfg)
	if err != nil {
		return nil, err
	}
	return notifyx.NewQueueNotifier(client, cfg.Destination)
}
