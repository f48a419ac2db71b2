// Package agentdef manages persona definitions: markdown files with a
// YAML frontmatter block, organized as <agents-dir>/<category>/<slug>.md
// in either the user or the project scope.
package agentdef

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scopes a definition can live in. Project definitions shadow user ones
// in listings.
const (
	ScopeUser    = "user"
	ScopeProject = "project"
)

const defaultVersion = "1.0"

// Definition is one persona: an identity plus the system prompt it
// applies, with optional model and sampling overrides.
type Definition struct {
	Name        string
	Category    string
	Description string
	Prompt      string
	Version     string
	Scope       string
	Model       string
	Temperature *float64
	MaxTokens   *int
	Tools       []string
}

// frontmatter is the YAML block between the --- fences.
type frontmatter struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Version     string   `yaml:"version"`
	Scope       string   `yaml:"scope"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
	Tools       []string `yaml:"tools,omitempty"`
}

// Slug converts a display name into its file-name form.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// ID identifies a definition within a scope.
func (d *Definition) ID() string {
	return d.Category + "/" + Slug(d.Name)
}

// Markdown renders the definition as frontmatter plus prompt body.
func (d *Definition) Markdown() (string, error) {
	fm := frontmatter{
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Version:     d.Version,
		Scope:       d.Scope,
		Model:       d.Model,
		Temperature: d.Temperature,
		MaxTokens:   d.MaxTokens,
		Tools:       d.Tools,
	}
	if fm.Version == "" {
		fm.Version = defaultVersion
	}
	if fm.Scope == "" {
		fm.Scope = ScopeUser
	}

	data, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	return "---\n" + string(data) + "---\n\n" + d.Prompt + "\n", nil
}

// Parse decodes a definition from its markdown form. The body may
// contain --- sequences; only the first two fences delimit frontmatter.
func Parse(content string) (*Definition, error) {
	if !strings.HasPrefix(content, "---") {
		return nil, errors.New("missing frontmatter")
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return nil, errors.New("missing frontmatter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if fm.Name == "" {
		return nil, errors.New("frontmatter has no name")
	}
	if fm.Version == "" {
		fm.Version = defaultVersion
	}
	if fm.Scope == "" {
		fm.Scope = ScopeUser
	}

	return &Definition{
		Name:        fm.Name,
		Category:    fm.Category,
		Description: fm.Description,
		Prompt:      strings.TrimSpace(parts[2]),
		Version:     fm.Version,
		Scope:       fm.Scope,
		Model:       fm.Model,
		Temperature: fm.Temperature,
		MaxTokens:   fm.MaxTokens,
		Tools:       fm.Tools,
	}, nil
}
