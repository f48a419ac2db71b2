package openrouter

import (
	"fmt"

	"github.com/parleyhq/parley/pkg/providers"
)

// ChatRequest is the chat/completions request body. Messages are already
// serialized into provider wire shape by the caller's adapter; optional
// sampling fields are omitted entirely when unset.
type ChatRequest struct {
	Model       string           `json:"model"`
	Messages    []map[string]any `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	TopP        *float64         `json:"top_p,omitempty"`
	Tools       []map[string]any `json:"tools,omitempty"`
	Stream      bool             `json:"stream,omitempty"`
}

type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type Choice struct {
	Index        int               `json:"index"`
	Message      providers.Message `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Model is one entry from the models listing.
type Model struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	ContextLength int           `json:"context_length,omitempty"`
	Pricing       *ModelPricing `json:"pricing,omitempty"`
}

type ModelPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// APIError is a non-2xx response from the API. ProviderName and Raw come
// from the error envelope's metadata when the upstream provider reported
// the failure.
type APIError struct {
	StatusCode   int
	Message      string
	ProviderName string
	Raw          string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("OpenRouter API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("OpenRouter API error: %d - %s", e.StatusCode, e.Message)
}

// errorEnvelope is the error body shape: {"error": {"message": ...,
// "metadata": {"provider_name": ..., "raw": ...}}}.
type errorEnvelope struct {
	Error struct {
		Message  string `json:"message"`
		Metadata struct {
			ProviderName string `json:"provider_name"`
			Raw          string `json:"raw"`
		} `json:"metadata"`
	} `json:"error"`
}

// streamChunk is one SSE data fragment of a streaming completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
