// Package llm sends an assembled prompt to a generative model and returns
// the response text verbatim.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/api/googleapi"

	"github.com/sells-group/brochure-cli/internal/config"
	"github.com/sells-group/brochure-cli/internal/resilience"
	"github.com/sells-group/brochure-cli/pkg/anthropic"
	"github.com/sells-group/brochure-cli/pkg/gemini"
	"github.com/sells-group/brochure-cli/pkg/perplexity"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// SystemPrompt frames every request.
const SystemPrompt = "You are an expert AI health insurance analyst. You read policy brochures " +
	"and report their terms accurately, quoting figures exactly as written and saying " +
	"\"Not mentioned\" when the brochure is silent."

// Generator turns a prompt into model output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Model names the model that produced the output, for history records.
	Model() string
}

// Options tunes a generator.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	System      string
	Retry       resilience.Policy
}

func (o Options) withDefaults(provider string) Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 4096
	}
	if o.System == "" {
		o.System = SystemPrompt
	}
	if o.Retry.InitialBackoff == 0 {
		o.Retry = resilience.DefaultPolicy()
	}
	o.Retry.ShouldRetry = isRetryable
	o.Retry.OnRetry = resilience.LogRetry(provider, "generate")
	return o
}

// New builds the generator selected by cfg.LLM.Provider.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	opts := Options{
		Model:       cfg.ModelName(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	switch cfg.LLM.Provider {
	case "anthropic", "":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("llm: anthropic.key is not set")
		}
		return NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), opts), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key)
		if err != nil {
			return nil, eris.Wrap(err, "llm: gemini client")
		}
		return NewGemini(client, opts), nil
	case "perplexity":
		if cfg.Perplexity.Key == "" {
			return nil, eris.New("llm: perplexity.key is not set")
		}
		client := perplexity.NewClient(cfg.Perplexity.Key, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		return NewPerplexity(client, opts), nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.LLM.Provider)
	}
}

// isRetryable classifies provider errors. Anthropic reports overload as 529.
func isRetryable(err error) bool {
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}
	if code := anthropic.StatusCode(err); code != 0 {
		return resilience.IsTransientHTTPStatus(code) || code == 529
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return resilience.IsTransientHTTPStatus(gerr.Code)
	}
	return resilience.IsTransient(err)
}

func checkText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
