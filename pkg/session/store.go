package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/parleyhq/parley/pkg/logger"
	"github.com/parleyhq/parley/pkg/providers"
)

// Store persists sessions as JSON files in a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Info summarizes one saved session for listings.
type Info struct {
	Filename     string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

type storedSession struct {
	Name         string          `json:"name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	SystemPrompt string          `json:"system_prompt"`
	Messages     []storedMessage `json:"messages"`
}

type storedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Save writes the session under name, auto-generating a timestamped name
// when none is given. Returns the filename written.
func (st *Store) Save(s *Session, name string) (string, error) {
	if name == "" {
		name = "session_" + time.Now().Format("20060102_150405")
	} else {
		name = sanitizeName(name)
		if name == "" {
			name = "session_" + time.Now().Format("20060102_150405")
		}
	}

	data := storedSession{
		Name:         name,
		CreatedAt:    s.Created,
		UpdatedAt:    s.Updated,
		SystemPrompt: s.SystemPrompt,
		Messages:     make([]storedMessage, 0, len(s.messages)),
	}
	for _, msg := range s.messages {
		data.Messages = append(data.Messages, storedMessage{
			Role:    msg.Role,
			Content: msg.ContentText(),
		})
	}

	filename := name + ".json"
	if err := st.writeAtomic(filename, data); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	logger.InfoCF("session", "Session saved", map[string]any{"file": filename})
	return filename, nil
}

// Load reads a saved session by name (the .json extension is optional).
// The returned session uses DefaultHistorySize; callers adjust it from
// config.
func (st *Store) Load(name string) (*Session, error) {
	filename := ensureExt(name)

	raw, err := os.ReadFile(filepath.Join(st.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var data storedSession
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", filename, err)
	}

	prompt := data.SystemPrompt
	if prompt == "" {
		prompt = "You are a helpful assistant."
	}

	s := New(prompt, DefaultHistorySize)
	if !data.CreatedAt.IsZero() {
		s.Created = data.CreatedAt
	}
	if !data.UpdatedAt.IsZero() {
		s.Updated = data.UpdatedAt
	}

	s.messages = make([]providers.Message, 0, len(data.Messages))
	for _, msg := range data.Messages {
		s.messages = append(s.messages, providers.Message{Role: msg.Role, Content: msg.Content})
	}
	if len(s.messages) == 0 || s.messages[0].Role != "system" {
		s.messages = append([]providers.Message{{Role: "system", Content: prompt}}, s.messages...)
	}
	for i := len(s.messages) - 1; i > 0; i-- {
		if s.messages[i].Role == "user" {
			s.LastUserPrompt = s.messages[i].ContentText()
			break
		}
	}

	logger.InfoCF("session", "Session loaded", map[string]any{"file": filename})
	return s, nil
}

// List returns saved sessions, newest filename first. Unreadable files
// are skipped with a warning.
func (st *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(st.dir, entry.Name()))
		if err != nil {
			logger.WarnCF("session", "Failed to read session file, skipping", map[string]any{
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}

		var data storedSession
		if err := json.Unmarshal(raw, &data); err != nil {
			logger.WarnCF("session", "Failed to parse session file, skipping", map[string]any{
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}

		name := data.Name
		if name == "" {
			name = strings.TrimSuffix(entry.Name(), ".json")
		}
		infos = append(infos, Info{
			Filename:     entry.Name(),
			Name:         name,
			CreatedAt:    data.CreatedAt,
			UpdatedAt:    data.UpdatedAt,
			MessageCount: len(data.Messages),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Filename > infos[j].Filename })
	return infos, nil
}

func (st *Store) Delete(name string) error {
	filename := ensureExt(name)

	if err := os.Remove(filepath.Join(st.dir, filename)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("session not found: %s", filename)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	logger.InfoCF("session", "Session deleted", map[string]any{"file": filename})
	return nil
}

func (st *Store) writeAtomic(filename string, data storedSession) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(st.dir, "session-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, filepath.Join(st.dir, filename)); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func ensureExt(name string) string {
	if strings.HasSuffix(name, ".json") {
		return name
	}
	return name + ".json"
}

// sanitizeName keeps letters, digits, '-' and '_' so session names are
// always safe filenames.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
