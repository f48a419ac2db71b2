package plan

import (
	"regexp"
	"strings"
)

// Directive patterns the planning prompt instructs the model to emit.
// Commands are bounded by backticks; file and search directives require
// the colon and stop at quotes or end of line, which keeps prose from
// leaking into the capture.
var (
	reExec   = regexp.MustCompile("(?i)\\b(?:execute|run|command):?\\s*`([^`]+)`")
	reRead   = regexp.MustCompile("(?i)\\bread file:\\s*['\"`]?([^'\"`\n]+)")
	reWrite  = regexp.MustCompile("(?i)\\b(?:write|create) file:\\s*['\"`]?([^'\"`\n]+)")
	reSearch = regexp.MustCompile("(?i)\\bsearch:\\s*['\"`]?([^'\"`\n]+)")
)

// ExtractActions scans model text for action directives. Actions are
// grouped by type: commands first, then reads, writes, searches.
func ExtractActions(response string) []Action {
	var actions []Action

	for _, match := range reExec.FindAllStringSubmatch(response, -1) {
		command := strings.TrimSpace(match[1])
		if command == "" {
			continue
		}
		actions = append(actions, Action{
			Type:        ActionExec,
			Command:     command,
			Description: "Execute: " + command,
		})
	}

	for _, match := range reRead.FindAllStringSubmatch(response, -1) {
		path := strings.TrimSpace(match[1])
		if path == "" {
			continue
		}
		actions = append(actions, Action{
			Type:        ActionRead,
			FilePath:    path,
			Description: "Read file: " + path,
		})
	}

	for _, match := range reWrite.FindAllStringSubmatch(response, -1) {
		path := strings.TrimSpace(match[1])
		if path == "" {
			continue
		}
		actions = append(actions, Action{
			Type:        ActionWrite,
			FilePath:    path,
			Description: "Write file: " + path,
		})
	}

	for _, match := range reSearch.FindAllStringSubmatch(response, -1) {
		query := strings.TrimSpace(match[1])
		if query == "" {
			continue
		}
		actions = append(actions, Action{
			Type:        ActionSearch,
			Query:       query,
			Description: "Search: " + query,
		})
	}

	return actions
}

// BuildPlan extracts actions and wraps them in a Plan, or returns nil
// when the text contains none (plain conversation).
func BuildPlan(response, reasoning, description string) *Plan {
	actions := ExtractActions(response)
	if len(actions) == 0 {
		return nil
	}

	if description == "" {
		description = response
		if idx := strings.Index(response, ". "); idx > 0 {
			description = response[:idx]
		}
	}
	if reasoning == "" {
		reasoning = "Performing requested actions"
	}

	return &Plan{
		Reasoning:   reasoning,
		Description: description,
		Actions:     actions,
	}
}
