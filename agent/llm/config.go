package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Support-Router/pkg/openrouter"
)

// Role names one of the three model-backed oracles.
type Role string

const (
	RoleClassifier  Role = "classifier"
	RoleJustifier   Role = "justifier"
	RoleSynthesizer Role = "synthesizer"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1" validate:"required,url"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true" validate:"required"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini" validate:"required"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000" validate:"gt=0"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s" validate:"gt=0"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ClassifierModel        string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	JustifierModel         string  `envconfig:"JUSTIFIER_MODEL" split_words:"true"`
	SynthesizerModel       string  `envconfig:"SYNTHESIZER_MODEL" split_words:"true"`
	ClassifierTemperature  float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	JustifierTemperature   float32 `envconfig:"JUSTIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	SynthesizerTemperature float32 `envconfig:"SYNTHESIZER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: llm timeout must be positive", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model and temperature for role, falling back to
// the defaults when no override is set.
func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(m string, t float32) {
		if v := strings.TrimSpace(m); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	switch role {
	case RoleClassifier:
		override(c.ClassifierModel, c.ClassifierTemperature)
	case RoleJustifier:
		override(c.JustifierModel, c.JustifierTemperature)
	case RoleSynthesizer:
		override(c.SynthesizerModel, c.SynthesizerTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
