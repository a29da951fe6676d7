// Package gemini wraps the Google generative AI SDK behind a small interface.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultModel is the model the analyzer used before it supported Claude.
const DefaultModel = "gemini-1.5-flash"

// Client defines the Gemini operations used by the analyzer.
type Client interface {
	GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error)
	Close() error
}

// TextRequest is a single-turn text generation request.
type TextRequest struct {
	Model           string
	System          string
	Prompt          string
	Temperature     *float32
	MaxOutputTokens int32
}

// TextResponse holds the first candidate's text.
type TextResponse struct {
	Text         string
	FinishReason string
	BlockReason  string
	Usage        Usage
}

// Usage reports token counts.
type Usage struct {
	PromptTokens    int32
	CandidateTokens int32
	TotalTokens     int32
}

// LogUsage logs token usage with structured zap fields.
func (u Usage) LogUsage(model, phase string) {
	zap.L().Info("token usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int32("prompt_tokens", u.PromptTokens),
		zap.Int32("candidate_tokens", u.CandidateTokens),
		zap.Int32("total_tokens", u.TotalTokens),
	)
}

type sdkClient struct {
	client *genai.Client
}

// NewClient creates a Gemini client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	c, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &sdkClient{client: c}, nil
}

func (c *sdkClient) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	name := req.Model
	if name == "" {
		name = DefaultModel
	}
	model := c.client.GenerativeModel(name)
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}
	return fromSDKResponse(resp), nil
}

func (c *sdkClient) Close() error {
	return c.client.Close()
}

func fromSDKResponse(resp *genai.GenerateContentResponse) *TextResponse {
	out := &TextResponse{}
	if resp == nil {
		return out
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		out.BlockReason = resp.PromptFeedback.BlockReason.String()
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:    resp.UsageMetadata.PromptTokenCount,
			CandidateTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:     resp.UsageMetadata.TotalTokenCount,
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	cand := resp.Candidates[0]
	out.FinishReason = cand.FinishReason.String()
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	out.Text = sb.String()
	return out
}
