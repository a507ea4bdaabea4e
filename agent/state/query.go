package state

import (
	"fmt"
	"strings"
)

type Intent string

const (
	IntentUnset      Intent = ""
	IntentFAQ        Intent = "FAQ"
	IntentDataLookup Intent = "DataLookup"
	IntentEscalation Intent = "Escalation"
)

// ParseIntent accepts the exact tokens FAQ, DataLookup and Escalation after
// trimming surrounding whitespace.
func ParseIntent(token string) (Intent, bool) {
	switch Intent(strings.TrimSpace(token)) {
	case IntentFAQ:
		return IntentFAQ, true
	case IntentDataLookup:
		return IntentDataLookup, true
	case IntentEscalation:
		return IntentEscalation, true
	default:
		return IntentUnset, false
	}
}

func (i Intent) String() string {
	if i == IntentUnset {
		return "Unset"
	}
	return string(i)
}

type EvidenceKind string

const (
	EvidenceSafety            EvidenceKind = "safety"
	EvidenceDoc               EvidenceKind = "doc"
	EvidenceTool              EvidenceKind = "tool"
	EvidenceToolJustification EvidenceKind = "tool_justification"
	EvidenceEscalated         EvidenceKind = "escalated"
)

// Tag renders an evidence tag as "<kind>:<payload>".
func Tag(kind EvidenceKind, payload string) string {
	return string(kind) + ":" + payload
}

// QueryState is owned by a single pipeline invocation. Evidence and Errors
// only grow; downstream stages read CurrentQuery, never RawQuery.
type QueryState struct {
	RawQuery       string
	CurrentQuery   string
	AccountContext string
	Intent         Intent
	Evidence       []string
	Errors         []string
	Answer         string

	SessionID           string
	SensitiveTopics     []string
	EscalationRequested bool
	PIITypes            []string
	RetrievedContext    string
}

func NewQueryState(query, accountContext string) *QueryState {
	return &QueryState{
		RawQuery:       query,
		CurrentQuery:   query,
		AccountContext: strings.TrimSpace(accountContext),
		Evidence:       make([]string, 0, 8),
		Errors:         make([]string, 0, 2),
	}
}

func (s *QueryState) AddEvidence(kind EvidenceKind, payload string) {
	s.Evidence = append(s.Evidence, Tag(kind, payload))
}

func (s *QueryState) AddError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

func (s *QueryState) HasAccount() bool {
	return s.AccountContext != ""
}

func (s *QueryState) HasEvidence(kind EvidenceKind) bool {
	prefix := string(kind) + ":"
	for _, tag := range s.Evidence {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}
