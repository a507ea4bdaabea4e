// Package oracle binds the classification, justification and synthesis
// collaborators to OpenRouter models.
package oracle

import (
	"context"
	"fmt"

	llmx "github.com/tanpawarit/Chative-Support-Router/agent/llm"
	promptx "github.com/tanpawarit/Chative-Support-Router/agent/prompt"
	openrouterx "github.com/tanpawarit/Chative-Support-Router/pkg/openrouter"
)

type Set struct {
	Classifier  *Classifier
	Justifier   *Justifier
	Synthesizer *Synthesizer
}

func NewSet(ctx context.Context, cfg llmx.Config, prompts promptx.PromptSet) (*Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifierCfg := cfg.OpenRouterFor(llmx.RoleClassifier)
	client, err := openrouterx.NewClient(classifierCfg)
	if err != nil {
		return nil, fmt.Errorf("create classifier client: %w", err)
	}
	classifier, err := NewClassifier(client, prompts, ClassifierOptions{
		Model:       classifierCfg.Model,
		Temperature: classifierCfg.Temperature,
		MaxTokens:   cfg.MaxCompletionToken,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	justifierCfg := cfg.OpenRouterFor(llmx.RoleJustifier)
	justifierModel, err := justifierCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create justifier model: %w", err)
	}
	justifier, err := NewJustifier(ctx, justifierModel, prompts, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	synthCfg := cfg.OpenRouterFor(llmx.RoleSynthesizer)
	synthModel, err := synthCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer model: %w", err)
	}
	synthesizer, err := NewSynthesizer(ctx, synthModel, prompts, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Set{
		Classifier:  classifier,
		Justifier:   justifier,
		Synthesizer: synthesizer,
	}, nil
}
