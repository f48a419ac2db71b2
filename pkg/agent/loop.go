// Parley - Terminal chat client for OpenRouter
// License: MIT
//
// Copyright (c) 2026 Parley contributors

// Package agent drives the tool-calling conversation loop: model rounds
// alternate with local tool execution until the model answers in plain
// text or the iteration budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parleyhq/parley/pkg/logger"
	"github.com/parleyhq/parley/pkg/openrouter"
	"github.com/parleyhq/parley/pkg/providers"
	"github.com/parleyhq/parley/pkg/tools"
	"github.com/parleyhq/parley/pkg/utils"
)

const (
	// DefaultMaxIterations bounds the loop when the caller does not.
	DefaultMaxIterations = 10

	// MaxIterationsMessage is returned as a normal result when the budget
	// runs out; it is not an error.
	MaxIterationsMessage = "Max iterations reached"
)

// ChatCaller is the transport surface the loop needs from the API client.
// *openrouter.Client satisfies it. A nil error implies at least one choice.
type ChatCaller interface {
	Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// ToolExecutor runs one tool call and reports the outcome as text.
// *tools.Executor satisfies it; the error is non-nil only for a tool
// name the executor does not recognize.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Loop couples a chat transport with a tool executor.
type Loop struct {
	client   ChatCaller
	executor ToolExecutor
}

func New(client ChatCaller, executor ToolExecutor) *Loop {
	return &Loop{client: client, executor: executor}
}

// RunOptions configures one run of the loop.
type RunOptions struct {
	Prompt        string
	SystemPrompt  string
	Model         string
	History       []providers.Message
	Temperature   *float64
	MaxTokens     *int
	MaxIterations int
}

// Run seeds the conversation with the system prompt, prior history and
// the user prompt, then iterates: call the model with tool declarations,
// execute any requested tools, feed the results back. Returns the
// model's final text, or MaxIterationsMessage when the budget runs out
// with tools still being requested.
func (l *Loop) Run(ctx context.Context, opts RunOptions) (string, error) {
	adapter := providers.AdapterFor(opts.Model)
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	messages := make([]providers.Message, 0, len(opts.History)+2)
	if opts.SystemPrompt != "" {
		messages = append(messages, providers.Message{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, opts.History...)
	messages = append(messages, providers.Message{Role: "user", Content: opts.Prompt})

	declarations := tools.Definitions()

	logger.InfoCF("agent", "Starting tool loop", map[string]any{
		"model":          opts.Model,
		"max_iterations": maxIterations,
	})

	for iteration := 1; iteration <= maxIterations; iteration++ {
		logger.DebugCF("agent", "Model iteration", map[string]any{
			"iteration": iteration,
			"max":       maxIterations,
		})

		resp, err := l.client.Chat(ctx, openrouter.ChatRequest{
			Model:       opts.Model,
			Messages:    serializeAll(adapter, messages),
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
			Tools:       declarations,
		})
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		assistant := resp.Choices[0].Message
		text := assistant.ContentText()
		calls := adapter.ExtractToolCalls(&assistant)

		// Keep the canonical form; the adapter re-serializes it into wire
		// shape on the next round.
		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   assistant.Content,
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			logger.InfoCF("agent", "Model answered without tool calls", map[string]any{
				"iteration":     iteration,
				"content_chars": len(text),
			})
			return text, nil
		}

		names := make([]string, 0, len(calls))
		for _, call := range calls {
			names = append(names, call.Name)
		}
		logger.InfoCF("agent", "Model requested tool calls", map[string]any{
			"tools":     names,
			"count":     len(calls),
			"iteration": iteration,
		})

		results := l.executeCalls(ctx, calls)
		messages = append(messages, adapter.FormatToolResults(results)...)
	}

	logger.WarnCF("agent", "Tool loop exceeded iteration budget", map[string]any{
		"max": maxIterations,
	})
	return MaxIterationsMessage, nil
}

// executeCalls runs every call in order, one result per call. Failures
// of known tools arrive as "Error:" strings from the executor already;
// an unknown tool name surfaces as an error and is converted here so
// the model can react to it.
func (l *Loop) executeCalls(ctx context.Context, calls []providers.ToolCall) []providers.ToolResult {
	results := make([]providers.ToolResult, 0, len(calls))
	for _, call := range calls {
		argsJSON, _ := json.Marshal(call.Arguments)
		logger.InfoCF("agent", fmt.Sprintf("Tool call: %s(%s)", call.Name, utils.Truncate(string(argsJSON), 200)), map[string]any{
			"tool": call.Name,
			"id":   call.ID,
		})

		content, err := l.executor.Execute(ctx, call.Name, call.Arguments)
		if err != nil {
			logger.ErrorCF("agent", "Tool execution failed", map[string]any{
				"tool":  call.Name,
				"error": err.Error(),
			})
			content = "Error: " + err.Error()
		}
		results = append(results, providers.ToolResult{
			ToolCallID: call.ID,
			Content:    content,
		})
	}
	return results
}

func serializeAll(adapter providers.Adapter, messages []providers.Message) []map[string]any {
	wire := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, adapter.SerializeMessage(msg))
	}
	return wire
}
