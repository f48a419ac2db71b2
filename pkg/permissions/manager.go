// Package permissions gates file and command access behind the project
// allow-list, an in-process decision cache, and an interactive prompt.
// Decisions are monotonic for the life of the process; "always" grants
// are persisted to the project config immediately.
package permissions

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/logger"
	"github.com/parleyhq/parley/pkg/plan"
)

// Manager is the single permission authority for one process. It is
// passed by reference to every component that needs gating; there is no
// ambient global.
type Manager struct {
	mu       sync.Mutex
	root     string
	cfg      *config.ProjectConfig
	cache    map[string]bool
	prompter Prompter
}

func NewManager(root string, cfg *config.ProjectConfig, prompter Prompter) *Manager {
	if cfg == nil {
		cfg = config.DefaultProjectConfig()
	}
	return &Manager{
		root:     filepath.Clean(root),
		cfg:      cfg,
		cache:    make(map[string]bool),
		prompter: prompter,
	}
}

// AllowRead reports whether path may be read. When interactive, a miss
// on the allow-list asks the user; otherwise it is denied and logged.
func (m *Manager) AllowRead(ctx context.Context, path string, interactive bool) bool {
	return m.allowPath(ctx, OpFileRead, path, interactive)
}

// AllowWrite reports whether path may be written.
func (m *Manager) AllowWrite(ctx context.Context, path string, interactive bool) bool {
	return m.allowPath(ctx, OpFileWrite, path, interactive)
}

func (m *Manager) allowPath(ctx context.Context, op Operation, path string, interactive bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.normalizePath(path)
	key := op.keyPrefix() + ":" + target

	if allowed, ok := m.cache[key]; ok {
		return allowed
	}
	if m.isAllowed(target, m.cfg.Permissions.FileOperations.AlwaysAllow) {
		m.cache[key] = true
		return true
	}

	if !interactive {
		logger.WarnCF("permissions", "File operation denied", map[string]any{
			"op":   op.String(),
			"path": path,
		})
		return false
	}

	switch m.prompter.Ask(ctx, path, op) {
	case DecisionAllowOnce:
		m.cache[key] = true
		return true
	case DecisionAllowAlways:
		m.persistFileGrant(target)
		m.cache[key] = true
		return true
	default:
		m.cache[key] = false
		return false
	}
}

// AllowCommand reports whether command may run in cwd. Commands are
// scoped by working directory: an "always" grant whitelists the
// directory, not the command text.
func (m *Manager) AllowCommand(ctx context.Context, command, cwd string, interactive bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	execCwd := m.normalizePath(cwd)
	key := "exec:" + command + ":" + execCwd

	if allowed, ok := m.cache[key]; ok {
		return allowed
	}
	if m.isAllowed(execCwd, m.cfg.Permissions.CommandExecution.AllowedPaths) {
		m.cache[key] = true
		return true
	}

	if !interactive {
		logger.WarnCF("permissions", "Command execution denied", map[string]any{
			"command": command,
			"cwd":     execCwd,
		})
		return false
	}

	switch m.prompter.Ask(ctx, command, OpCommandExec) {
	case DecisionAllowOnce:
		m.cache[key] = true
		return true
	case DecisionAllowAlways:
		m.persistCommandGrant(execCwd)
		m.cache[key] = true
		return true
	default:
		m.cache[key] = false
		return false
	}
}

// CheckPlan verifies every action of a plan without prompting. Search
// actions need no permission. Returns whether all passed plus the
// denied actions.
func (m *Manager) CheckPlan(ctx context.Context, p *plan.Plan) (bool, []plan.Action) {
	var denied []plan.Action
	for _, action := range p.Actions {
		allowed := true
		switch action.Type {
		case plan.ActionExec:
			allowed = m.AllowCommand(ctx, action.Command, "", false)
		case plan.ActionRead:
			allowed = m.AllowRead(ctx, action.FilePath, false)
		case plan.ActionWrite:
			allowed = m.AllowWrite(ctx, action.FilePath, false)
		}
		if !allowed {
			denied = append(denied, action)
		}
	}
	return len(denied) == 0, denied
}

// Reload re-reads the project config, picking up allow-list edits made
// outside this process. Cached decisions stay.
func (m *Manager) Reload() error {
	cfg, err := config.LoadProjectConfig(m.root)
	if err != nil {
		logger.WarnCF("permissions", "Failed to reload project config", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	logger.InfoC("permissions", "Project configuration reloaded")
	return nil
}

func (m *Manager) persistFileGrant(target string) {
	entry := m.relativeEntry(target)
	list := m.cfg.Permissions.FileOperations.AlwaysAllow
	if slices.Contains(list, entry) {
		return
	}
	m.cfg.Permissions.FileOperations.AlwaysAllow = append(list, entry)
	m.saveGrant(entry)
}

func (m *Manager) persistCommandGrant(execCwd string) {
	entry := m.relativeEntry(execCwd)
	list := m.cfg.Permissions.CommandExecution.AllowedPaths
	if slices.Contains(list, entry) {
		return
	}
	m.cfg.Permissions.CommandExecution.AllowedPaths = append(list, entry)
	m.saveGrant(entry)
}

func (m *Manager) saveGrant(entry string) {
	if err := config.SaveProjectConfig(m.root, m.cfg); err != nil {
		logger.WarnCF("permissions", "Failed to persist grant, allowing once", map[string]any{
			"entry": entry,
			"error": err.Error(),
		})
		return
	}
	logger.InfoCF("permissions", "Always-allow grant persisted", map[string]any{
		"entry": entry,
	})
}

// relativeEntry stores grants project-relative so the config file stays
// portable; targets outside the root keep their absolute form.
func (m *Manager) relativeEntry(target string) string {
	rel, err := filepath.Rel(m.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return target
	}
	return rel
}

func (m *Manager) normalizePath(path string) string {
	if path == "" {
		return m.root
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(m.root, path)
}

func (m *Manager) isAllowed(target string, entries []string) bool {
	for _, entry := range entries {
		allowed := m.normalizePath(entry)
		if target == allowed || strings.HasPrefix(target, allowed+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (op Operation) keyPrefix() string {
	switch op {
	case OpFileRead:
		return "read"
	case OpFileWrite:
		return "write"
	}
	return "exec"
}
