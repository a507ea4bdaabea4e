package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilTurn         = errors.New("turn is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// Turn is one answered query checkpointed under a session. Query is always the
// redacted text.
type Turn struct {
	SessionID      string    `json:"session_id"`
	Query          string    `json:"query"`
	AccountContext string    `json:"account_context,omitempty"`
	Intent         Intent    `json:"intent"`
	Outcome        string    `json:"outcome"`
	Answer         string    `json:"answer"`
	Evidence       []string  `json:"evidence,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewTurn(sessionID string, st *QueryState, outcome string, now time.Time) *Turn {
	return &Turn{
		SessionID:      sessionID,
		Query:          st.CurrentQuery,
		AccountContext: st.AccountContext,
		Intent:         st.Intent,
		Outcome:        outcome,
		Answer:         st.Answer,
		Evidence:       append([]string(nil), st.Evidence...),
		Errors:         append([]string(nil), st.Errors...),
		CreatedAt:      now.UTC(),
	}
}

func (t *Turn) Validate() error {
	if t == nil {
		return ErrNilTurn
	}
	if strings.TrimSpace(t.SessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(t.Query) == "" {
		return fmt.Errorf("turn query is empty for session=%s", t.SessionID)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("turn created_at is zero for session=%s", t.SessionID)
	}
	return nil
}
