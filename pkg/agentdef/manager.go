package agentdef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parleyhq/parley/pkg/logger"
)

// Manager performs CRUD over the user and project persona directories.
// Both paths are injected so nothing here consults the environment.
type Manager struct {
	userDir    string
	projectDir string
}

func NewManager(userDir, projectDir string) *Manager {
	return &Manager{userDir: userDir, projectDir: projectDir}
}

// List returns definitions, optionally filtered by scope and category.
// Project definitions sort before user ones, then by name.
func (m *Manager) List(scope, category string) []Definition {
	var defs []Definition
	if scope == "" || scope == ScopeUser {
		defs = append(defs, m.listDir(m.userDir, ScopeUser)...)
	}
	if scope == "" || scope == ScopeProject {
		defs = append(defs, m.listDir(m.projectDir, ScopeProject)...)
	}

	if category != "" {
		filtered := defs[:0]
		for _, d := range defs {
			if d.Category == category {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}

	sort.Slice(defs, func(i, j int) bool {
		if (defs[i].Scope == ScopeProject) != (defs[j].Scope == ScopeProject) {
			return defs[i].Scope == ScopeProject
		}
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// listDir scans one scope directory; unparseable files are skipped with
// a warning. The directory decides the scope, not the file contents.
func (m *Manager) listDir(dir, scope string) []Definition {
	categories, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var defs []Definition
	for _, cat := range categories {
		if !cat.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, cat.Name()))
		if err != nil {
			continue
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
				continue
			}
			path := filepath.Join(dir, cat.Name(), file.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				logger.WarnCF("agentdef", "Failed to read agent file", map[string]any{
					"path":  path,
					"error": err.Error(),
				})
				continue
			}
			def, err := Parse(string(data))
			if err != nil {
				logger.WarnCF("agentdef", "Failed to parse agent file", map[string]any{
					"path":  path,
					"error": err.Error(),
				})
				continue
			}
			def.Scope = scope
			defs = append(defs, *def)
		}
	}
	return defs
}

// Get finds one definition by category and name (matched by slug).
// An empty scope searches both.
func (m *Manager) Get(category, name, scope string) (*Definition, bool) {
	want := Slug(name)
	for _, d := range m.List(scope, category) {
		if Slug(d.Name) == want {
			def := d
			return &def, true
		}
	}
	return nil, false
}

// Create saves a new definition, failing when one with the same identity
// already exists in the scope. Returns the file path.
func (m *Manager) Create(def *Definition) (string, error) {
	if _, exists := m.Get(def.Category, def.Name, def.Scope); exists {
		return "", fmt.Errorf("agent %q already exists in scope %q", def.Name, def.Scope)
	}
	return m.save(def)
}

// Update overwrites an existing definition.
func (m *Manager) Update(def *Definition) (string, error) {
	if _, exists := m.Get(def.Category, def.Name, def.Scope); !exists {
		return "", fmt.Errorf("agent %q not found in scope %q", def.Name, def.Scope)
	}
	return m.save(def)
}

// Delete removes a definition, pruning its category directory when that
// leaves it empty. Reports whether anything was deleted.
func (m *Manager) Delete(category, name, scope string) (bool, error) {
	def, exists := m.Get(category, name, scope)
	if !exists {
		return false, nil
	}

	path := m.path(def)
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to delete agent: %w", err)
	}
	logger.InfoCF("agentdef", "Agent deleted", map[string]any{
		"id":    def.ID(),
		"scope": scope,
	})

	// Remove fails on a non-empty directory, which is the point.
	os.Remove(filepath.Dir(path))
	return true, nil
}

// Categories returns the sorted set of category names in use.
func (m *Manager) Categories(scope string) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, d := range m.List(scope, "") {
		if !seen[d.Category] {
			seen[d.Category] = true
			categories = append(categories, d.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

func (m *Manager) save(def *Definition) (string, error) {
	content, err := def.Markdown()
	if err != nil {
		return "", err
	}

	path := m.path(def)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create agents directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to save agent: %w", err)
	}

	logger.InfoCF("agentdef", "Agent saved", map[string]any{
		"id":   def.ID(),
		"path": path,
	})
	return path, nil
}

func (m *Manager) path(def *Definition) string {
	dir := m.userDir
	if def.Scope == ScopeProject {
		dir = m.projectDir
	}
	return filepath.Join(dir, def.Category, Slug(def.Name)+".md")
}
