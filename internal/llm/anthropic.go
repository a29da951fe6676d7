package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brochure-cli/internal/resilience"
	"github.com/sells-group/brochure-cli/pkg/anthropic"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

type anthropicGenerator struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropic returns a Generator backed by Claude.
func NewAnthropic(client anthropic.Client, opts Options) Generator {
	opts = opts.withDefaults("anthropic")
	if opts.Model == "" {
		opts.Model = DefaultAnthropicModel
	}
	return &anthropicGenerator{client: client, opts: opts}
}

func (g *anthropicGenerator) Model() string { return g.opts.Model }

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := g.opts.Temperature
	req := anthropic.MessageRequest{
		Model:     g.opts.Model,
		MaxTokens: g.opts.MaxTokens,
		System: []anthropic.SystemBlock{
			{Text: g.opts.System, CacheControl: &anthropic.CacheControl{TTL: "5m"}},
		},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}

	resp, err := resilience.Do(ctx, g.opts.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic generate")
	}

	resp.Usage.LogCost(g.opts.Model, "analyze")
	if resp.StopReason == "max_tokens" {
		zap.L().Warn("llm: response truncated at max_tokens",
			zap.String("model", g.opts.Model),
			zap.Int64("max_tokens", g.opts.MaxTokens),
		)
	}
	return checkText(resp.Text())
}
