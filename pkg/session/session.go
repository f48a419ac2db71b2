// Parley - Terminal chat client for OpenRouter
// License: MIT
//
// Copyright (c) 2026 Parley contributors

// Package session holds the live conversation state and its on-disk
// persistence. A Session is the in-memory message list the REPL feeds to
// the model; a Store saves and restores named snapshots as JSON files.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/pkg/providers"
	"github.com/parleyhq/parley/pkg/utils"
)

// DefaultHistorySize is the trim threshold used when a session is
// restored from disk; callers override it from config.
const DefaultHistorySize = 50

// Session is one conversation: a leading system message followed by
// alternating user/assistant turns. Tool-round messages stay local to the
// agent loop and never land here, so content is always plain text.
type Session struct {
	SystemPrompt string
	HistorySize  int
	Created      time.Time
	Updated      time.Time

	// LastUserPrompt feeds /retry. Set on every user turn.
	LastUserPrompt string

	messages []providers.Message
}

func New(systemPrompt string, historySize int) *Session {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	now := time.Now()
	return &Session{
		SystemPrompt: systemPrompt,
		HistorySize:  historySize,
		Created:      now,
		Updated:      now,
		messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
		},
	}
}

// Add appends a turn and trims old history, always keeping the leading
// system message plus the most recent HistorySize turns.
func (s *Session) Add(role, content string) {
	s.messages = append(s.messages, providers.Message{Role: role, Content: content})
	s.Updated = time.Now()
	if role == "user" {
		s.LastUserPrompt = content
	}

	if len(s.messages) > s.HistorySize+1 {
		trimmed := make([]providers.Message, 0, s.HistorySize+1)
		trimmed = append(trimmed, s.messages[0])
		trimmed = append(trimmed, s.messages[len(s.messages)-s.HistorySize:]...)
		s.messages = trimmed
	}
}

// History returns the conversation turns without the system message.
func (s *Session) History() []providers.Message {
	out := make([]providers.Message, len(s.messages)-1)
	copy(out, s.messages[1:])
	return out
}

// All returns every message including the system message, in API order.
func (s *Session) All() []providers.Message {
	out := make([]providers.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len counts conversation turns, excluding the system message.
func (s *Session) Len() int {
	return len(s.messages) - 1
}

// Clear drops the conversation but keeps the system prompt.
func (s *Session) Clear() {
	s.messages = s.messages[:1]
	s.Updated = time.Now()
}

// SetSystemPrompt replaces the system prompt in place, so the change
// applies to the next model call without losing history.
func (s *Session) SetSystemPrompt(prompt string) {
	s.SystemPrompt = prompt
	s.messages[0] = providers.Message{Role: "system", Content: prompt}
	s.Updated = time.Now()
}

// Context renders a short human-readable transcript for display.
func (s *Session) Context() string {
	history := s.History()
	if len(history) == 0 {
		return "No conversation history yet."
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		text := utils.Truncate(msg.ContentText(), 100)
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(msg.Role), text))
	}
	return strings.Join(lines, "\n")
}
