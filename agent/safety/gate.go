package safety

import (
	"regexp"
	"strings"
)

// maxRedactPasses bounds the fixed-point loop in Redact. Every productive pass
// removes characters that the patterns need, so real inputs settle in one or two.
const maxRedactPasses = 8

var (
	outputSSNPattern  = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	outputCardPattern = regexp.MustCompile(`\b\d{16}\b`)
)

// Gate scans and redacts queries against a compiled Policy. It is immutable
// after construction and safe for concurrent use.
type Gate struct {
	topics []compiledTopic
	pii    []compiledPII
	terms  []*regexp.Regexp
	raw    []string
}

type TopicCheck struct {
	Topics         []string
	ShouldEscalate bool
}

func (c TopicCheck) Sensitive() bool {
	return len(c.Topics) > 0
}

type PIICheck struct {
	Types    []string
	Redacted string
}

func (c PIICheck) Found() bool {
	return len(c.Types) > 0
}

type InputCheck struct {
	SensitiveTerms []string
	Issues         []string
}

func (c InputCheck) Safe() bool {
	return len(c.SensitiveTerms) == 0 && len(c.Issues) == 0
}

func New() (*Gate, error) {
	p, err := DefaultPolicy()
	if err != nil {
		return nil, err
	}
	return NewFromPolicy(p)
}

func MustNew() *Gate {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

func NewFromPolicy(p Policy) (*Gate, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	topics, pii, terms, err := p.compile()
	if err != nil {
		return nil, err
	}
	return &Gate{
		topics: topics,
		pii:    pii,
		terms:  terms,
		raw:    append([]string(nil), p.SensitiveTerms...),
	}, nil
}

// CheckTopics reports matched topics in policy order, each at most once.
func (g *Gate) CheckTopics(text string) TopicCheck {
	lower := strings.ToLower(text)
	var out TopicCheck
	for _, t := range g.topics {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				out.Topics = append(out.Topics, t.name)
				if t.escalate {
					out.ShouldEscalate = true
				}
				break
			}
		}
	}
	return out
}

// Redact replaces every PII match with its typed placeholder. Patterns run in
// policy order over the progressively redacted text, repeated until stable so
// that Redact(Redact(x)) == Redact(x).
func (g *Gate) Redact(text string) PIICheck {
	out := PIICheck{Redacted: text}
	seen := make(map[string]struct{}, len(g.pii))

	for pass := 0; pass < maxRedactPasses; pass++ {
		changed := false
		for _, p := range g.pii {
			if !p.re.MatchString(out.Redacted) {
				continue
			}
			next := p.re.ReplaceAllLiteralString(out.Redacted, p.placeholder)
			if next != out.Redacted {
				changed = true
				out.Redacted = next
			}
			if _, ok := seen[p.kind]; !ok {
				seen[p.kind] = struct{}{}
				out.Types = append(out.Types, p.kind)
			}
		}
		if !changed {
			break
		}
	}
	return out
}

// CheckInput flags sensitive terms and injection markers in a query.
func (g *Gate) CheckInput(text string) InputCheck {
	var out InputCheck
	for i, re := range g.terms {
		if re.MatchString(text) {
			out.SensitiveTerms = append(out.SensitiveTerms, g.raw[i])
		}
	}
	if strings.Contains(text, "{{") || strings.Contains(text, "}}") {
		out.Issues = append(out.Issues, "Potential template injection detected")
	}
	if strings.Contains(strings.ToLower(text), "<script>") {
		out.Issues = append(out.Issues, "Potential script injection detected")
	}
	return out
}

// CheckOutput flags answers that may leak sensitive data. Mentions of
// sensitive terms are tolerated when the answer reads as documentation.
func (g *Gate) CheckOutput(answer string) []string {
	var issues []string
	lower := strings.ToLower(answer)
	docContext := strings.Contains(lower, "documentation") || strings.Contains(lower, "guide")

	for i, re := range g.terms {
		if re.MatchString(answer) && !docContext {
			issues = append(issues, "Output may contain sensitive information: "+g.raw[i])
		}
	}
	if outputSSNPattern.MatchString(answer) {
		issues = append(issues, "Output contains potential SSN pattern")
	}
	if outputCardPattern.MatchString(answer) {
		issues = append(issues, "Output contains potential credit card pattern")
	}
	return issues
}
