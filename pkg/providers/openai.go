package providers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// OpenAIAdapter speaks the OpenAI conventions: tool calls arrive in the
// message's tool_calls array with JSON-encoded argument strings, and
// results go back as separate role "tool" messages.
type OpenAIAdapter struct{}

func (a *OpenAIAdapter) SystemTools() []map[string]any {
	return nil
}

func (a *OpenAIAdapter) ExtractToolCalls(msg *Message) []ToolCall {
	if msg == nil {
		return nil
	}

	var calls []ToolCall
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			warnSkippedToolCall("openai", fmt.Sprintf("unsupported tool call type %q", tc.Type), tc.ID)
			continue
		}

		call := ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}
		if tc.Function != nil {
			call.Name = tc.Function.Name
			call.Arguments = map[string]any{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &call.Arguments); err != nil {
					warnSkippedToolCall("openai", "undecodable arguments: "+err.Error(), tc.Function.Name)
					continue
				}
			}
		}
		if call.Name == "" {
			warnSkippedToolCall("openai", "tool call has no function name", tc.ID)
			continue
		}
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		calls = append(calls, call)
	}
	return calls
}

func (a *OpenAIAdapter) SerializeMessage(msg Message) map[string]any {
	out := serializeBase(msg)
	if len(msg.ToolCalls) == 0 {
		return out
	}

	wire := make([]any, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		args := call.Arguments
		if args == nil {
			args = map[string]any{}
		}
		encoded, err := json.Marshal(args)
		if err != nil {
			encoded = []byte("{}")
		}
		wire = append(wire, map[string]any{
			"id":   call.ID,
			"type": "function",
			"function": map[string]any{
				"name":      call.Name,
				"arguments": string(encoded),
			},
		})
	}
	out["tool_calls"] = wire
	return out
}

// FormatToolResults returns one role "tool" message per result, each
// carrying the originating call id.
func (a *OpenAIAdapter) FormatToolResults(results []ToolResult) []Message {
	messages := make([]Message, 0, len(results))
	for _, r := range results {
		messages = append(messages, Message{
			Role:       "tool",
			Content:    r.Content,
			ToolCallID: r.ToolCallID,
		})
	}
	return messages
}
