// Package api serves the assistant over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	assistantx "github.com/tanpawarit/Chative-Support-Router/agent/assistant"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

const (
	serviceName    = "NovaCRM Support Router"
	serviceVersion = "1.0.0"
)

type Config struct {
	Addr            string        `split_words:"true" default:":8000" validate:"required"`
	Mode            string        `split_words:"true" default:"release" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"3m"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// Assistant is the part of *assistant.Assistant the handlers use.
type Assistant interface {
	Process(ctx context.Context, query, accountContext, sessionID string) assistantx.Result
	History(ctx context.Context, sessionID string) ([]statex.Turn, error)
	ResetSession(ctx context.Context, sessionID string) error
	ValidationSummary() validatex.Summary
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Assistant Assistant
	Invoker   contractx.ToolInvoker
	// ToolServer is optional; /health reports "unknown" without it.
	ToolServer Pinger
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// CheckpointBackend names the session store for /health.
	CheckpointBackend string
}

func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if deps.Invoker == nil {
		return nil, errors.New("tool invoker is required")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	h := &Handlers{
		assistant:  deps.Assistant,
		invoker:    deps.Invoker,
		toolServer: deps.ToolServer,
		backend:    deps.CheckpointBackend,
		now:        time.Now,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	registerRoutes(engine, h, deps.Gatherer)
	return engine, nil
}

func registerRoutes(engine *gin.Engine, h *Handlers, gatherer prometheus.Gatherer) {
	engine.GET("/", h.HandleRoot)
	engine.GET("/health", h.HandleHealth)
	engine.POST("/query", h.HandleQuery)
	engine.GET("/session/:id", h.HandleGetSession)
	engine.DELETE("/session/:id", h.HandleDeleteSession)
	engine.GET("/tools", h.HandleListTools)
	engine.POST("/tools/:name", h.HandleTool)
	engine.GET("/validation/summary", h.HandleValidationSummary)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http_request")
	}
}

// Serve runs the router until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func Serve(ctx context.Context, cfg Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http_server_started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info().Msg("http_server_stopped")
	return nil
}
