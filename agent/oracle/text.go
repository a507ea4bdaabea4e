package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	promptx "github.com/tanpawarit/Chative-Support-Router/agent/prompt"
)

var (
	_ contractx.JustificationOracle = (*Justifier)(nil)
	_ contractx.SynthesisOracle     = (*Synthesizer)(nil)
)

type textRunner = compose.Runnable[map[string]any, string]

func compileTextGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	userPrompt string,
	graphName string,
) (textRunner, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(userPrompt) == "" {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPromptMissing, graphName)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	)

	graph := compose.NewGraph[map[string]any, string]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add %s prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add %s model node: %w", graphName, err)
	}
	if err := graph.AddLambdaNode("extract_text",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil {
				return "", fmt.Errorf("%w: model returned no message", contractx.ErrModelInvoke)
			}
			return strings.TrimSpace(msg.Content), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add %s extract node: %w", graphName, err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "extract_text"},
		{"extract_text", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add %s edge %s->%s: %w", graphName, edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

func invokeText(ctx context.Context, runner textRunner, timeout time.Duration, vars map[string]any) (string, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	out, err := runner.Invoke(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

// Justifier explains which account data a lookup needs.
type Justifier struct {
	runner  textRunner
	timeout time.Duration
}

func NewJustifier(ctx context.Context, chatModel einomodel.BaseChatModel, prompts promptx.PromptSet, timeout time.Duration) (*Justifier, error) {
	runner, err := compileTextGraph(ctx, chatModel, prompts.System, prompts.ToolCheck, "oracle.justification")
	if err != nil {
		return nil, err
	}
	return &Justifier{runner: runner, timeout: timeout}, nil
}

func (j *Justifier) Justify(ctx context.Context, query, accountContext string) (string, error) {
	return invokeText(ctx, j.runner, j.timeout, map[string]any{
		promptx.VarQuery:          query,
		promptx.VarAccountContext: accountContext,
	})
}

// Synthesizer rewrites retrieved documentation into an answer.
type Synthesizer struct {
	runner  textRunner
	timeout time.Duration
}

func NewSynthesizer(ctx context.Context, chatModel einomodel.BaseChatModel, prompts promptx.PromptSet, timeout time.Duration) (*Synthesizer, error) {
	runner, err := compileTextGraph(ctx, chatModel, prompts.System, prompts.RAGSynth, "oracle.synthesis")
	if err != nil {
		return nil, err
	}
	return &Synthesizer{runner: runner, timeout: timeout}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, docContext, question string) (string, error) {
	return invokeText(ctx, s.runner, s.timeout, map[string]any{
		promptx.VarContext:  docContext,
		promptx.VarQuestion: question,
	})
}
