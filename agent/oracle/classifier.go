package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	promptx "github.com/tanpawarit/Chative-Support-Router/agent/prompt"
)

var _ contractx.ClassificationOracle = (*Classifier)(nil)

// Classifier asks a chat completion endpoint for the raw intent token.
type Classifier struct {
	client      *openaisdk.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	template    einoprompt.ChatTemplate
}

type ClassifierOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func NewClassifier(client *openaisdk.Client, prompts promptx.PromptSet, opts ClassifierOptions) (*Classifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: classifier client is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("%w: classifier model is required", contractx.ErrValidation)
	}
	if prompts.Router == "" {
		return nil, fmt.Errorf("%w: router prompt", contractx.ErrPromptMissing)
	}

	return &Classifier{
		client:      client,
		model:       strings.TrimSpace(opts.Model),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		timeout:     opts.Timeout,
		template: einoprompt.FromMessages(
			schema.FString,
			schema.SystemMessage(prompts.System),
			schema.UserMessage(prompts.Router),
		),
	}, nil
}

// Classify returns the trimmed reply. Mapping it onto an intent is the
// caller's job.
func (c *Classifier) Classify(ctx context.Context, query string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	msgs, err := c.template.Format(ctx, map[string]any{promptx.VarQuery: query})
	if err != nil {
		return "", fmt.Errorf("%w: format router prompt: %v", contractx.ErrPromptMissing, err)
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    toOpenAIMessages(msgs),
		Temperature: openaisdk.Float(float64(c.temperature)),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: classify: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: classify: empty choices", contractx.ErrSchemaViolation)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toOpenAIMessages(msgs []*schema.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			out = append(out, openaisdk.UserMessage(msg.Content))
		}
	}
	return out
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
