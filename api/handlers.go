package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
	toolx "github.com/tanpawarit/Chative-Support-Router/agent/tool"
	validatex "github.com/tanpawarit/Chative-Support-Router/agent/validate"
)

type Handlers struct {
	assistant  Assistant
	invoker    contractx.ToolInvoker
	toolServer Pinger
	backend    string
	now        func() time.Time
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

type QueryRequest struct {
	Query          string `json:"query"`
	AccountContext string `json:"account_context"`
	SessionID      string `json:"session_id"`
}

type QueryResponse struct {
	SessionID        string   `json:"session_id"`
	Query            string   `json:"query"`
	Intent           string   `json:"intent"`
	Answer           string   `json:"answer"`
	Evidence         []string `json:"evidence"`
	Errors           []string `json:"errors"`
	Outcome          string   `json:"outcome"`
	Timestamp        string   `json:"timestamp"`
	ValidationPassed bool     `json:"validation_passed"`
	ValidationIssues []string `json:"validation_issues"`
}

type SessionResponse struct {
	SessionID string        `json:"session_id"`
	History   []statex.Turn `json:"history"`
	Message   string        `json:"message,omitempty"`
}

func (h *Handlers) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName,
		"version": serviceVersion,
		"status":  "running",
		"endpoints": gin.H{
			"query":              "/query",
			"health":             "/health",
			"session_history":    "/session/{session_id}",
			"tools":              "/tools",
			"tool_call":          "/tools/{name}",
			"validation_summary": "/validation/summary",
			"metrics":            "/metrics",
		},
		"tools": toolx.Available(),
	})
}

func (h *Handlers) HandleHealth(c *gin.Context) {
	toolStatus := "unknown"
	if h.toolServer != nil {
		toolStatus = "connected"
		if err := h.toolServer.Ping(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("tool_server_unreachable")
			toolStatus = "disconnected"
		}
	}
	backend := h.backend
	if backend == "" {
		backend = "none"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"components": gin.H{
			"api":         "running",
			"pipeline":    "initialized",
			"checkpoint":  backend,
			"tool_server": toolStatus,
		},
	})
}

// HandleQuery runs one query. A missing session id is replaced by a fresh
// UUID so the caller can continue the session.
func (h *Handlers) HandleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if validatex.NormalizeQuery(req.Query) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required", Code: "INVALID_REQUEST"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	res := h.assistant.Process(c.Request.Context(), validatex.NormalizeQuery(req.Query), req.AccountContext, sessionID)

	issues := res.Validation.Issues()
	if issues == nil {
		issues = []string{}
	}
	c.JSON(http.StatusOK, QueryResponse{
		SessionID:        sessionID,
		Query:            res.Query,
		Intent:           res.Intent.String(),
		Answer:           res.Answer,
		Evidence:         res.Evidence,
		Errors:           res.Errors,
		Outcome:          string(res.Outcome),
		Timestamp:        h.now().UTC().Format(time.RFC3339),
		ValidationPassed: res.Validation == nil || res.Validation.Passed(),
		ValidationIssues: issues,
	})
}

func (h *Handlers) HandleGetSession(c *gin.Context) {
	sessionID := c.Param("id")
	turns, err := h.assistant.History(c.Request.Context(), sessionID)
	switch {
	case errors.Is(err, statex.ErrSessionNotFound):
		c.JSON(http.StatusOK, SessionResponse{
			SessionID: sessionID,
			History:   []statex.Turn{},
			Message:   "No history found for this session",
		})
	case err != nil:
		log.Error().Err(err).Str("session_id", sessionID).Msg("session_history_failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve history", Code: "HISTORY_FAILED"})
	default:
		c.JSON(http.StatusOK, SessionResponse{SessionID: sessionID, History: turns})
	}
}

func (h *Handlers) HandleDeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.assistant.ResetSession(c.Request.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("session_delete_failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete session", Code: "DELETE_FAILED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"status":     "deleted",
		"message":    "Session history cleared",
	})
}

func (h *Handlers) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": toolx.Describe()})
}

// HandleTool calls one tool directly. Parameters are checked against the
// tool schema first; tool-level failures come back as 200 with an error body.
func (h *Handlers) HandleTool(c *gin.Context) {
	name := c.Param("name")
	if !toolx.IsAvailable(name) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Unknown tool: " + name,
			Code:    "UNKNOWN_TOOL",
			Details: toolx.Available(),
		})
		return
	}

	var params contractx.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if check := toolx.ValidateParams(name, params); !check.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid parameters",
			Code:    "INVALID_PARAMS",
			Details: check.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, h.invoker.Invoke(c.Request.Context(), contractx.ToolCall{Tool: name, Params: params}))
}

func (h *Handlers) HandleValidationSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.ValidationSummary())
}
