// Package plan is the legacy fallback for models without tool calling:
// it extracts executable actions from free-form model text with regex
// patterns. The agent loop never imports it; only the REPL's
// no-tool-support path does.
package plan

import (
	"fmt"
	"strings"
)

type ActionType string

const (
	ActionExec   ActionType = "exec"
	ActionRead   ActionType = "read"
	ActionWrite  ActionType = "write"
	ActionSearch ActionType = "search"
)

// Action is one step extracted from model text. Exactly one payload
// field is set, matching Type. After execution either Result or Error
// is set alongside Executed.
type Action struct {
	Type        ActionType
	Description string

	Command  string
	FilePath string
	Content  string
	Query    string

	Executed bool
	Result   string
	Error    string
}

// Target returns the payload the permission check and display care
// about: the command, path, or query.
func (a *Action) Target() string {
	switch a.Type {
	case ActionExec:
		return a.Command
	case ActionRead, ActionWrite:
		return a.FilePath
	case ActionSearch:
		return a.Query
	}
	return ""
}

type Plan struct {
	Reasoning   string
	Description string
	Actions     []Action
}

// Summary renders the plan for the confirmation prompt.
func (p *Plan) Summary() string {
	lines := []string{
		"Plan: " + p.Description,
		"Reasoning: " + p.Reasoning,
		"",
		"Actions:",
	}
	for i, action := range p.Actions {
		status := "○"
		if action.Executed {
			status = "✓"
		}
		lines = append(lines, fmt.Sprintf("  %s %d. %s", status, i+1, action.Description))

		switch action.Type {
		case ActionExec:
			lines = append(lines, "     Command: "+action.Command)
		case ActionRead, ActionWrite:
			lines = append(lines, "     File: "+action.FilePath)
		case ActionSearch:
			lines = append(lines, "     Query: "+action.Query)
		}
	}
	return strings.Join(lines, "\n")
}
