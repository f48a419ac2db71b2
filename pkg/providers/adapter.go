// Parley - Terminal chat client for OpenRouter
// License: MIT
//
// Copyright (c) 2026 Parley contributors

// Package providers holds the canonical conversation types and the
// provider adapter families that translate between them and each
// provider's wire conventions for tool calling.
package providers

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley/pkg/logger"
)

// Adapter translates between canonical messages and one provider
// family's conventions for declaring tools, extracting tool calls and
// feeding results back.
type Adapter interface {
	// SystemTools returns provider-specific top-level tool declarations.
	// Both shipped families return nil; tools ride the request's tools field.
	SystemTools() []map[string]any

	// ExtractToolCalls parses the provider's tool-call representation out
	// of an assistant message. Malformed entries are skipped with a
	// warning, never failing the whole extraction.
	ExtractToolCalls(msg *Message) []ToolCall

	// SerializeMessage renders a message into the provider's wire shape.
	SerializeMessage(msg Message) map[string]any

	// FormatToolResults converts tool results into the message(s) the
	// provider expects on the next request.
	FormatToolResults(results []ToolResult) []Message
}

// AdapterFor selects the adapter family for a model identifier by its
// provider prefix. Unknown prefixes fall back to the Anthropic family
// with a logged warning rather than failing.
func AdapterFor(model string) Adapter {
	switch {
	case strings.HasPrefix(model, "anthropic/"):
		return &AnthropicAdapter{}
	case strings.HasPrefix(model, "openai/"):
		return &OpenAIAdapter{}
	default:
		logger.WarnCF("providers", "No adapter registered for model, defaulting to Anthropic conventions", map[string]any{
			"model": model,
		})
		return &AnthropicAdapter{}
	}
}

// serializeBase is the default field-for-field dump shared by both
// families, with empty fields omitted.
func serializeBase(msg Message) map[string]any {
	out := map[string]any{
		"role": msg.Role,
	}
	if msg.Content != nil {
		if s, ok := msg.Content.(string); !ok || s != "" {
			out["content"] = msg.Content
		}
	}
	if msg.ToolCallID != "" {
		out["tool_call_id"] = msg.ToolCallID
	}
	return out
}

// decodeToolCallBlock converts one tool_use-shaped content block into a
// ToolCall, reporting ok=false when the block is not usable.
func decodeToolCallBlock(block map[string]any) (ToolCall, bool) {
	name, _ := block["name"].(string)
	if name == "" {
		return ToolCall{}, false
	}
	call := ToolCall{Name: name}
	call.ID, _ = block["id"].(string)
	if input, ok := block["input"].(map[string]any); ok {
		call.Arguments = input
	} else {
		call.Arguments = map[string]any{}
	}
	return call, true
}

func warnSkippedToolCall(family string, reason string, entry any) {
	logger.WarnCF("providers", "Skipping malformed tool call entry", map[string]any{
		"family": family,
		"reason": reason,
		"entry":  fmt.Sprintf("%v", entry),
	})
}
