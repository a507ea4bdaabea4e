package safety

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

type Policy struct {
	SensitiveTopics []TopicRule `yaml:"sensitive_topics"`
	PIIPatterns     []PIIRule   `yaml:"pii_patterns"`
	SensitiveTerms  []string    `yaml:"sensitive_terms"`
}

type TopicRule struct {
	Name     string   `yaml:"name"`
	Escalate bool     `yaml:"escalate"`
	Keywords []string `yaml:"keywords"`
}

type PIIRule struct {
	Type    string `yaml:"type"`
	Pattern string `yaml:"pattern"`
}

// DefaultPolicy returns the policy compiled into the binary.
func DefaultPolicy() (Policy, error) {
	return ParsePolicy(defaultPolicy)
}

func ParsePolicy(data []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("unmarshal safety policy: %w", err)
	}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) validate() error {
	seen := make(map[string]struct{}, len(p.SensitiveTopics))
	for i, t := range p.SensitiveTopics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("sensitive_topics[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("sensitive_topics[%d]: duplicate topic %q", i, name)
		}
		seen[name] = struct{}{}
		if len(t.Keywords) == 0 {
			return fmt.Errorf("sensitive_topics[%d]: topic %q has no keywords", i, name)
		}
	}
	for i, r := range p.PIIPatterns {
		if strings.TrimSpace(r.Type) == "" || strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("pii_patterns[%d]: type and pattern are required", i)
		}
	}
	return nil
}

type compiledTopic struct {
	name     string
	escalate bool
	keywords []string
}

type compiledPII struct {
	kind        string
	re          *regexp.Regexp
	placeholder string
}

func (p Policy) compile() ([]compiledTopic, []compiledPII, []*regexp.Regexp, error) {
	topics := make([]compiledTopic, 0, len(p.SensitiveTopics))
	for _, t := range p.SensitiveTopics {
		kws := make([]string, 0, len(t.Keywords))
		for _, kw := range t.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		topics = append(topics, compiledTopic{
			name:     strings.TrimSpace(t.Name),
			escalate: t.Escalate,
			keywords: kws,
		})
	}

	pii := make([]compiledPII, 0, len(p.PIIPatterns))
	for _, r := range p.PIIPatterns {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("compile pii pattern %s: %w", r.Type, err)
		}
		kind := strings.TrimSpace(r.Type)
		pii = append(pii, compiledPII{
			kind:        kind,
			re:          re,
			placeholder: "[REDACTED_" + strings.ToUpper(kind) + "]",
		})
	}

	terms := make([]*regexp.Regexp, 0, len(p.SensitiveTerms))
	for _, term := range p.SensitiveTerms {
		re, err := regexp.Compile("(?i)" + term)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("compile sensitive term %q: %w", term, err)
		}
		terms = append(terms, re)
	}

	return topics, pii, terms, nil
}
