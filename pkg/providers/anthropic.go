package providers

import "github.com/google/uuid"

// AnthropicAdapter speaks the Anthropic conventions: tool calls arrive as
// tool_use blocks in the content array, and results go back as tool_result
// blocks inside a single user message.
type AnthropicAdapter struct{}

func (a *AnthropicAdapter) SystemTools() []map[string]any {
	return nil
}

func (a *AnthropicAdapter) ExtractToolCalls(msg *Message) []ToolCall {
	if msg == nil {
		return nil
	}
	blocks, ok := msg.Content.([]any)
	if !ok {
		return nil
	}

	var calls []ToolCall
	for _, block := range blocks {
		blockMap, ok := block.(map[string]any)
		if !ok {
			warnSkippedToolCall("anthropic", "content block is not an object", block)
			continue
		}
		if blockType, _ := blockMap["type"].(string); blockType != "tool_use" {
			continue
		}
		call, ok := decodeToolCallBlock(blockMap)
		if !ok {
			warnSkippedToolCall("anthropic", "tool_use block has no name", blockMap)
			continue
		}
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		calls = append(calls, call)
	}
	return calls
}

func (a *AnthropicAdapter) SerializeMessage(msg Message) map[string]any {
	if msg.Role != "assistant" {
		return serializeBase(msg)
	}

	text := msg.ContentText()

	if len(msg.ToolCalls) == 0 {
		if text == "" {
			// The wire format rejects assistant turns with empty content.
			out := serializeBase(msg)
			out["content"] = []any{textBlock("(no content)")}
			return out
		}
		return serializeBase(msg)
	}

	// Weave tool calls into the content sequence. Any tool_use blocks
	// already present in Content are stale copies of ToolCalls and are
	// dropped; ContentText keeps only the free text.
	blocks := make([]any, 0, len(msg.ToolCalls)+1)
	if text != "" {
		blocks = append(blocks, textBlock(text))
	}
	for _, call := range msg.ToolCalls {
		args := call.Arguments
		if args == nil {
			args = map[string]any{}
		}
		blocks = append(blocks, map[string]any{
			"type":  "tool_use",
			"id":    call.ID,
			"name":  call.Name,
			"input": args,
		})
	}

	return map[string]any{
		"role":    msg.Role,
		"content": blocks,
	}
}

// FormatToolResults returns one user message whose content is a sequence
// of tool_result blocks. Result text is wrapped in a text block; the API
// rejects bare strings inside a block array.
func (a *AnthropicAdapter) FormatToolResults(results []ToolResult) []Message {
	blocks := make([]any, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, map[string]any{
			"type":        "tool_result",
			"tool_use_id": r.ToolCallID,
			"content":     []any{textBlock(r.Content)},
		})
	}
	return []Message{{Role: "user", Content: blocks}}
}

func textBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}
