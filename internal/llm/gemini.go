package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/brochure-cli/internal/resilience"
	"github.com/sells-group/brochure-cli/pkg/gemini"
)

type geminiGenerator struct {
	client gemini.Client
	opts   Options
}

// NewGemini returns a Generator backed by Gemini.
func NewGemini(client gemini.Client, opts Options) Generator {
	opts = opts.withDefaults("gemini")
	if opts.Model == "" {
		opts.Model = gemini.DefaultModel
	}
	return &geminiGenerator{client: client, opts: opts}
}

func (g *geminiGenerator) Model() string { return g.opts.Model }

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := float32(g.opts.Temperature)
	req := gemini.TextRequest{
		Model:           g.opts.Model,
		System:          g.opts.System,
		Prompt:          prompt,
		Temperature:     &temp,
		MaxOutputTokens: int32(g.opts.MaxTokens),
	}

	resp, err := resilience.Do(ctx, g.opts.Retry, func(ctx context.Context) (*gemini.TextResponse, error) {
		return g.client.GenerateText(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini generate")
	}

	resp.Usage.LogUsage(g.opts.Model, "analyze")
	if resp.BlockReason != "" {
		return "", eris.Wrapf(ErrEmptyResponse, "llm: prompt blocked (%s)", resp.BlockReason)
	}
	return checkText(resp.Text)
}
