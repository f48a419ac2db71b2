package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string, opts ...Option) *Client {
	opts = append([]Option{WithBaseURL(serverURL)}, opts...)
	c := NewClient("test-key", opts...)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func chatFixture(content string) string {
	return `{
		"id": "gen-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "openai/gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + jsonString(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestChat_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("HTTP-Referer"))
		assert.NotEmpty(t, r.Header.Get("X-Title"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(chatFixture("hello there")))
	}))
	defer srv.Close()

	temp := 0.7
	maxTokens := 512
	client := newTestClient(srv.URL)

	resp, err := client.Chat(context.Background(), ChatRequest{
		Model:       "openai/gpt-4o",
		Messages:    []map[string]any{{"role": "user", "content": "hi"}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)

	assert.Equal(t, "gen-1", resp.ID)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, "hello there", resp.Choices[0].Message.ContentText())
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, "openai/gpt-4o", gotBody["model"])
	assert.Equal(t, 0.7, gotBody["temperature"])
	assert.Equal(t, float64(512), gotBody["max_tokens"])
	_, hasTopP := gotBody["top_p"]
	assert.False(t, hasTopP, "unset optional fields must be omitted")
	_, hasTools := gotBody["tools"]
	assert.False(t, hasTools)
	_, hasStream := gotBody["stream"]
	assert.False(t, hasStream)
}

func TestChat_RetryableStatusesWithBackoff(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "rate limited"}}`))
			return
		}
		w.Write([]byte(chatFixture("recovered")))
	}))
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(srv.URL, WithRetryPolicy(3, time.Second, 2.0))
	client.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	resp, err := client.Chat(context.Background(), ChatRequest{Model: "m", Messages: nil})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Choices[0].Message.ContentText())
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays, "delay grows by the backoff factor after each retry")
}

func TestChat_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key", "metadata": {"provider_name": "openai", "raw": "bad key"}}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, WithRetryPolicy(3, time.Millisecond, 2.0))
	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx responses other than 429 are terminal")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid api key", apiErr.Message)
	assert.Equal(t, "openai", apiErr.ProviderName)
	assert.Equal(t, "bad key", apiErr.Raw)
}

func TestChat_RetriesExhausted(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "overloaded"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, WithRetryPolicy(2, time.Millisecond, 2.0))
	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, 3, attempts, "one initial attempt plus two retries")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestChat_ErrorBodyNotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("plain text failure"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "plain text failure", apiErr.Message)
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "gen-2", "choices": []}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatStream_DeliversTokens(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(": keep-alive comment\n"))
		w.Write([]byte("\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n"))
		w.Write([]byte("data: {not valid json\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{}}]}\n"))
		w.Write([]byte("data: [DONE]\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	var tokens []string
	err := client.ChatStream(context.Background(), ChatRequest{Model: "m"}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, tokens, "malformed chunks are skipped and [DONE] ends the stream")
	assert.Equal(t, true, gotBody["stream"])
}

func TestChatStream_RetriesBeforeFirstToken(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			w.Write([]byte(`{"error": {"message": "upstream timeout"}}`))
			return
		}
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, WithRetryPolicy(2, time.Millisecond, 2.0))
	var tokens []string
	err := client.ChatStream(context.Background(), ChatRequest{Model: "m"}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"ok"}, tokens)
}

func TestChatStream_CallbackErrorStopsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	stop := errors.New("stop")
	client := newTestClient(srv.URL)
	count := 0
	err := client.ChatStream(context.Background(), ChatRequest{Model: "m"}, func(string) error {
		count++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count, "delivery stops at the first callback error and is not retried")
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": [
			{"id": "anthropic/claude-sonnet-4", "name": "Claude Sonnet 4", "context_length": 200000},
			{"id": "openai/gpt-4o", "name": "GPT-4o", "pricing": {"prompt": "0.0000025", "completion": "0.00001"}}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "anthropic/claude-sonnet-4", models[0].ID)
	assert.Equal(t, 200000, models[0].ContextLength)
	require.NotNil(t, models[1].Pricing)
	assert.Equal(t, "0.0000025", models[1].Pricing.Prompt)
}

func TestListModels_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.ListModels(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
