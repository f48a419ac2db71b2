package providers

import "strings"

// Message is one turn in a conversation. Content is either a plain string
// or a []any of provider-typed blocks (text, tool_use, tool_result).
type Message struct {
	Role       string     `json:"role"`
	Content    any        `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one tool invocation requested by the model. Name and
// Arguments are the canonical form produced by adapter extraction; Type
// and Function mirror the OpenAI wire nesting so responses decode
// losslessly before extraction normalizes them.
type ToolCall struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	Function  *FunctionCall  `json:"function,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// FunctionCall is the nested OpenAI wire form: the name plus the
// arguments as an undecoded JSON string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult carries the outcome of one tool call back to the model.
// Failures are encoded in Content with an "Error: " prefix, never as a
// separate error field.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// ContentText extracts plain text from Content. Handles both string
// content and block-structured []any content, joining the text blocks
// with newlines and ignoring everything else.
func (m *Message) ContentText() string {
	if m == nil || m.Content == nil {
		return ""
	}
	if s, ok := m.Content.(string); ok {
		return s
	}
	blocks, ok := m.Content.([]any)
	if !ok {
		return ""
	}
	var texts []string
	for _, block := range blocks {
		blockMap, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if blockType, _ := blockMap["type"].(string); blockType == "text" {
			if text, ok := blockMap["text"].(string); ok {
				texts = append(texts, text)
			}
		}
	}
	return strings.Join(texts, "\n")
}
