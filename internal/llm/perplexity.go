package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brochure-cli/internal/resilience"
	"github.com/sells-group/brochure-cli/pkg/perplexity"
)

type perplexityGenerator struct {
	client perplexity.Client
	opts   Options
}

// NewPerplexity returns a Generator backed by Perplexity Sonar. Web search is
// disabled so answers come from the brochure text alone.
func NewPerplexity(client perplexity.Client, opts Options) Generator {
	opts = opts.withDefaults("perplexity")
	if opts.Model == "" {
		opts.Model = perplexity.DefaultModel
	}
	return &perplexityGenerator{client: client, opts: opts}
}

func (g *perplexityGenerator) Model() string { return g.opts.Model }

func (g *perplexityGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := g.opts.Temperature
	maxTokens := int(g.opts.MaxTokens)
	req := perplexity.ChatCompletionRequest{
		Model: g.opts.Model,
		Messages: []perplexity.Message{
			{Role: "system", Content: g.opts.System},
			{Role: "user", Content: prompt},
		},
		Temperature:   &temp,
		MaxTokens:     &maxTokens,
		DisableSearch: true,
	}

	resp, err := resilience.Do(ctx, g.opts.Retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return g.client.ChatCompletion(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: perplexity generate")
	}

	resp.Usage.LogUsage(g.opts.Model, "analyze")
	if len(resp.Choices) > 0 && resp.Choices[0].FinishReason == "length" {
		zap.L().Warn("llm: response truncated at max_tokens",
			zap.String("model", g.opts.Model),
			zap.Int64("max_tokens", g.opts.MaxTokens),
		)
	}
	return checkText(resp.Text())
}
