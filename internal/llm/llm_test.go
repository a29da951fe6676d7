package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/sells-group/brochure-cli/internal/config"
	"github.com/sells-group/brochure-cli/internal/resilience"
	"github.com/sells-group/brochure-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/brochure-cli/pkg/anthropic/mocks"
	"github.com/sells-group/brochure-cli/pkg/gemini"
	geminimocks "github.com/sells-group/brochure-cli/pkg/gemini/mocks"
	"github.com/sells-group/brochure-cli/pkg/perplexity"
	perplexitymocks "github.com/sells-group/brochure-cli/pkg/perplexity/mocks"
)

var fastRetry = resilience.Policy{InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-sonnet-4-5-20250929" &&
			req.MaxTokens == 1024 &&
			len(req.System) == 1 && req.System[0].Text == SystemPrompt &&
			len(req.Messages) == 1 && req.Messages[0].Content == "PROMPT" &&
			req.Temperature != nil && *req.Temperature == 0.2
	})).Return(textResponse("| Room Rent | No Limit |"), nil).Once()

	g := NewAnthropic(client, Options{MaxTokens: 1024, Temperature: 0.2, Retry: fastRetry})
	assert.Equal(t, "claude-sonnet-4-5-20250929", g.Model())

	out, err := g.Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "| Room Rent | No Limit |", out)
}

func TestAnthropicGenerator_EmptyResponse(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("  \n"), nil).Once()

	g := NewAnthropic(client, Options{Retry: fastRetry})
	_, err := g.Generate(context.Background(), "PROMPT")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicGenerator_RetriesTransientErrors(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	transient := resilience.NewTransientError(errors.New("overloaded"), http.StatusServiceUnavailable)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, transient).Once()
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("ok"), nil).Once()

	g := NewAnthropic(client, Options{Retry: fastRetry})
	out, err := g.Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestAnthropicGenerator_PermanentError(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("invalid x-api-key")).Once()

	g := NewAnthropic(client, Options{Retry: fastRetry})
	_, err := g.Generate(context.Background(), "PROMPT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: anthropic generate")
}

func TestGeminiGenerator_Generate(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	client.On("GenerateText", mock.Anything, mock.MatchedBy(func(req gemini.TextRequest) bool {
		return req.Model == gemini.DefaultModel &&
			req.Prompt == "PROMPT" &&
			req.System == SystemPrompt &&
			req.MaxOutputTokens == 4096
	})).Return(&gemini.TextResponse{Text: "| Co-payment | 10% |"}, nil).Once()

	g := NewGemini(client, Options{Retry: fastRetry})
	assert.Equal(t, gemini.DefaultModel, g.Model())

	out, err := g.Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "| Co-payment | 10% |", out)
}

func TestGeminiGenerator_Blocked(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything).
		Return(&gemini.TextResponse{BlockReason: "BlockReasonSafety"}, nil).Once()

	g := NewGemini(client, Options{Model: "gemini-2.0-flash", Retry: fastRetry})
	_, err := g.Generate(context.Background(), "PROMPT")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, err.Error(), "blocked")
}

func TestGeminiGenerator_RetriesServerError(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: http.StatusTooManyRequests}).Once()
	client.On("GenerateText", mock.Anything, mock.Anything).
		Return(&gemini.TextResponse{Text: "done"}, nil).Once()

	g := NewGemini(client, Options{Retry: fastRetry})
	out, err := g.Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(ErrEmptyResponse))
	assert.True(t, isRetryable(&googleapi.Error{Code: http.StatusBadGateway}))
	assert.False(t, isRetryable(&googleapi.Error{Code: http.StatusBadRequest}))
	assert.True(t, isRetryable(resilience.NewTransientError(errors.New("x"), 0)))
	assert.False(t, isRetryable(errors.New("bad request")))
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "anthropic"
	cfg.Anthropic.Key = "sk-ant"
	cfg.Anthropic.Model = "claude-haiku-4-5-20251001"

	g, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", g.Model())

	cfg.Anthropic.Key = ""
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg.LLM.Provider = "gemini"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err, "gemini needs a key")

	cfg.LLM.Provider = "perplexity"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err, "perplexity needs a key")

	cfg.Perplexity.Key = "pplx"
	cfg.Perplexity.Model = "sonar"
	g, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "sonar", g.Model())

	cfg.LLM.Provider = "mistral"
	_, err = New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func chatResponse(text, finish string) *perplexity.ChatCompletionResponse {
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: text}, FinishReason: finish}},
	}
}

func TestPerplexityGenerator_Generate(t *testing.T) {
	client := perplexitymocks.NewMockClient(t)
	client.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return req.Model == "sonar-pro" &&
			req.DisableSearch &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == "system" && req.Messages[0].Content == SystemPrompt &&
			req.Messages[1].Role == "user" && req.Messages[1].Content == "PROMPT" &&
			req.MaxTokens != nil && *req.MaxTokens == 2048
	})).Return(chatResponse("### Plan Overview", "stop"), nil).Once()

	g := NewPerplexity(client, Options{MaxTokens: 2048, Retry: fastRetry})
	assert.Equal(t, "sonar-pro", g.Model())

	out, err := g.Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "### Plan Overview", out)
}

func TestPerplexityGenerator_RetriesAndEmpty(t *testing.T) {
	client := perplexitymocks.NewMockClient(t)
	transient := resilience.NewTransientError(errors.New("busy"), http.StatusTooManyRequests)
	client.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, transient).Once()
	client.On("ChatCompletion", mock.Anything, mock.Anything).Return(&perplexity.ChatCompletionResponse{}, nil).Once()

	g := NewPerplexity(client, Options{Retry: fastRetry})
	_, err := g.Generate(context.Background(), "PROMPT")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
