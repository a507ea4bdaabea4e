package llm

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "k", Model: "m", Timeout: time.Second}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.APIKey = " "
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:                 "k",
		Model:                  "base",
		Temperature:            0.2,
		MaxCompletionToken:     500,
		Timeout:                5 * time.Second,
		SynthesizerModel:       "writer",
		SynthesizerTemperature: 0.7,
		ClassifierTemperature:  -1,
		JustifierTemperature:   -1,
	}

	synth := cfg.OpenRouterFor(RoleSynthesizer)
	if synth.Model != "writer" || synth.Temperature != 0.7 {
		t.Fatalf("synthesizer = %s/%v, want writer/0.7", synth.Model, synth.Temperature)
	}

	classifier := cfg.OpenRouterFor(RoleClassifier)
	if classifier.Model != "base" || classifier.Temperature != 0.2 {
		t.Fatalf("classifier = %s/%v, want base/0.2", classifier.Model, classifier.Temperature)
	}
	if classifier.MaxCompletionToken == nil || *classifier.MaxCompletionToken != 500 {
		t.Fatalf("MaxCompletionToken = %v", classifier.MaxCompletionToken)
	}
	if classifier.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v", classifier.Timeout)
	}
}
