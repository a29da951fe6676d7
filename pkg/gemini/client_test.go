package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSDKResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("| Feature | Details |\n"),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("| Co-payment | 10% |"),
			}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.UsageMetadata{
			PromptTokenCount:     900,
			CandidatesTokenCount: 120,
			TotalTokenCount:      1020,
		},
	}

	out := fromSDKResponse(resp)
	assert.Equal(t, "| Feature | Details |\n| Co-payment | 10% |", out.Text)
	assert.Equal(t, genai.FinishReasonStop.String(), out.FinishReason)
	assert.Empty(t, out.BlockReason)
	assert.Equal(t, Usage{PromptTokens: 900, CandidateTokens: 120, TotalTokens: 1020}, out.Usage)
}

func TestFromSDKResponse_NoCandidates(t *testing.T) {
	out := fromSDKResponse(&genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	})
	assert.Empty(t, out.Text)
	assert.Equal(t, genai.BlockReasonSafety.String(), out.BlockReason)

	out = fromSDKResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Empty(t, out.Text)

	assert.NotNil(t, fromSDKResponse(nil))
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestLogUsage_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Usage{PromptTokens: 1}.LogUsage(DefaultModel, "analyze")
	})
}
