package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

const (
	minAnswerRunes = 10
	maxAnswerRunes = 2500
	maxQueryRunes  = 500
)

// Disclaimer is appended to answers that fail ValidateAnswer.
const Disclaimer = "\n\n*Note: This response may be incomplete. Please contact support for assistance.*"

var defaultBannedPhrases = []string{
	"I apologize for the confusion",
	"Let me check that for you",
	"I'm just an AI",
	"I don't have access to",
}

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	pricePattern   = regexp.MustCompile(`\$\d{1,3}(,\d{3})*(\.\d{2})?`)
	dollarDigit    = regexp.MustCompile(`\$\d`)
	isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	absoluteTerms  = []string{"always", "never", "impossible", "guaranteed", "100%"}
)

// Validator runs rule-based checks over finished answers and records every
// ValidateAnswer call in its Stats.
type Validator struct {
	stats  *Stats
	banned []string
}

type Option func(*Validator)

// WithBannedPhrases replaces the default filler-phrase denylist.
func WithBannedPhrases(phrases ...string) Option {
	return func(v *Validator) {
		v.banned = append([]string(nil), phrases...)
	}
}

func New(stats *Stats, opts ...Option) *Validator {
	if stats == nil {
		stats = NewStats()
	}
	v := &Validator{
		stats:  stats,
		banned: defaultBannedPhrases,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

func (v *Validator) Stats() *Stats {
	return v.stats
}

type AnswerCheck struct {
	Valid           bool     `json:"is_valid"`
	Warnings        []string `json:"warnings"`
	BlockedPatterns []string `json:"blocked_patterns,omitempty"`
	AnswerLength    int      `json:"answer_length"`
	EvidenceCount   int      `json:"evidence_count"`
}

func (v *Validator) ValidateAnswer(answer string, intent statex.Intent, evidence []string) AnswerCheck {
	var out AnswerCheck
	lower := strings.ToLower(answer)
	length := utf8.RuneCountInString(answer)

	if utf8.RuneCountInString(strings.TrimSpace(answer)) < minAnswerRunes {
		out.Warnings = append(out.Warnings, "Answer is too short or empty")
	}
	for _, phrase := range v.banned {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			out.Warnings = append(out.Warnings, "Contains banned phrase: "+phrase)
			out.BlockedPatterns = append(out.BlockedPatterns, phrase)
		}
	}
	if intent != statex.IntentEscalation && len(evidence) == 0 {
		out.Warnings = append(out.Warnings, "No evidence provided")
	}
	if (strings.Contains(lower, "definitely") || strings.Contains(lower, "certainly")) && len(evidence) < 2 {
		out.Warnings = append(out.Warnings, "Strong claim without sufficient evidence")
	}
	if length > maxAnswerRunes {
		out.Warnings = append(out.Warnings, "Answer is excessively long")
	}
	if intent == statex.IntentFAQ && len(evidence) > 0 && !strings.Contains(answer, "Sources:") {
		out.Warnings = append(out.Warnings, "FAQ answer missing explicit source citations")
	}

	out.Valid = len(out.Warnings) == 0
	out.AnswerLength = length
	out.EvidenceCount = len(evidence)
	v.stats.record(out.Valid, out.EvidenceCount, out.AnswerLength)
	return out
}

type EvidenceCheck struct {
	Valid         bool     `json:"is_valid"`
	Warnings      []string `json:"warnings"`
	HasSources    bool     `json:"has_sources"`
	EvidenceCount int      `json:"evidence_count"`
	Types         []string `json:"evidence_types"`
}

// ValidateEvidence fails on empty evidence or when no tag has a type prefix.
// Types lists distinct prefixes in first-seen order.
func (v *Validator) ValidateEvidence(evidence []string) EvidenceCheck {
	out := EvidenceCheck{
		HasSources:    len(evidence) > 0,
		EvidenceCount: len(evidence),
	}
	if len(evidence) == 0 {
		out.Warnings = append(out.Warnings, "No evidence collected")
	}

	seen := make(map[string]struct{}, 4)
	for _, tag := range evidence {
		kind, _, ok := strings.Cut(tag, ":")
		if !ok || kind == "" {
			continue
		}
		if _, dup := seen[kind]; !dup {
			seen[kind] = struct{}{}
			out.Types = append(out.Types, kind)
		}
	}
	if len(out.Types) == 0 {
		out.Warnings = append(out.Warnings, "Evidence has no type tags")
	}

	out.Valid = len(out.Warnings) == 0
	return out
}

// CheckIntentAnswerMatch reports whether the answer carries what its intent
// promises: a doc tag for FAQ, a tool tag for DataLookup, and a support or
// contact mention for Escalation.
func (v *Validator) CheckIntentAnswerMatch(intent statex.Intent, answer string, evidence []string) bool {
	switch intent {
	case statex.IntentFAQ:
		return hasKind(evidence, statex.EvidenceDoc)
	case statex.IntentDataLookup:
		return hasKind(evidence, statex.EvidenceTool)
	case statex.IntentEscalation:
		lower := strings.ToLower(answer)
		return strings.Contains(lower, "support") || strings.Contains(lower, "contact")
	default:
		return true
	}
}

// SanitizeOutput neutralizes script tags, collapses runs of blank lines and
// trims the result. It is idempotent.
func SanitizeOutput(text string) string {
	text = strings.ReplaceAll(text, "<script>", "[script]")
	text = strings.ReplaceAll(text, "</script>", "[/script]")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// NormalizeQuery strips prompt-role markers and collapses whitespace. It
// never shortens the text, so PII stays intact for redaction.
func NormalizeQuery(query string) string {
	for _, marker := range []string{"```", "SYSTEM:", "Assistant:"} {
		query = strings.ReplaceAll(query, marker, "")
	}
	return strings.Join(strings.Fields(query), " ")
}

// TruncateQuery caps an already redacted query at maxQueryRunes.
func TruncateQuery(query string) string {
	if r := []rune(query); len(r) > maxQueryRunes {
		query = strings.TrimSpace(string(r[:maxQueryRunes]))
	}
	return query
}

// CheckHallucinationIndicators flags prices and dates absent from the source
// context, and absolute claims.
func CheckHallucinationIndicators(answer, context string) []string {
	var warnings []string
	if pricePattern.MatchString(answer) && context != "" && !dollarDigit.MatchString(context) {
		warnings = append(warnings, "Answer contains specific prices not found in context")
	}
	if isoDatePattern.MatchString(answer) && context != "" && !isoDatePattern.MatchString(context) {
		warnings = append(warnings, "Answer contains specific dates not found in context")
	}
	lower := strings.ToLower(answer)
	for _, term := range absoluteTerms {
		if strings.Contains(lower, term) {
			warnings = append(warnings, "Contains absolute statement: '"+term+"'")
		}
	}
	return warnings
}

func hasKind(evidence []string, kind statex.EvidenceKind) bool {
	prefix := string(kind) + ":"
	for _, tag := range evidence {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}
