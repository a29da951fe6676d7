package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageJSON(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-sonnet-4-5-20250929",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":                1200,
			"output_tokens":               80,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     0,
		},
	}
}

func TestSDKClient_CreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet-4-5-20250929", body["model"])
		assert.EqualValues(t, 2048, body["max_tokens"])
		assert.InDelta(t, 0.2, body["temperature"], 0.0001)

		system, ok := body["system"].([]any)
		require.True(t, ok)
		require.Len(t, system, 1)
		assert.Equal(t, "You are an expert health insurance analyst.", system[0].(map[string]any)["text"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageJSON("| Plan Name | Gold |"))
	}))
	defer ts.Close()

	temp := 0.2
	client := NewClient("test-key", WithBaseURL(ts.URL))
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   2048,
		System:      []SystemBlock{{Text: "You are an expert health insurance analyst."}},
		Messages:    []Message{{Role: "user", Content: "Room Rent Limit: No Limit"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "| Plan Name | Gold |", resp.Text())
	assert.Equal(t, int64(1200), resp.Usage.InputTokens)
}

func TestSDKClient_CreateMessage_Error(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    "rate_limit_error",
				"message": "slow down",
			},
		})
	}))
	defer ts.Close()

	client := NewClient("test-key", WithBaseURL(ts.URL))
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 16,
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Equal(t, 1, calls, "SDK retries are disabled")
}

func TestStatusCode_NonAPIError(t *testing.T) {
	assert.Equal(t, 0, StatusCode(assert.AnError))
	assert.Equal(t, 0, StatusCode(nil))
}
