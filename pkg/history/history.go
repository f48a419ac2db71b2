// Package history persists prompt and command history in a local SQLite
// database under the user directory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/parleyhq/parley/pkg/logger"
)

// Entry kinds.
const (
	KindQuery    = "query"
	KindCommand  = "command"
	KindResponse = "response"
)

// maxEntries caps the table; the oldest rows are pruned on insert.
const maxEntries = 1000

// Entry is one recorded prompt, slash command or model response.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Kind      string
	Content   string
}

// Stats summarizes the stored history.
type Stats struct {
	TotalEntries int
	ByKind       map[string]int
	FirstEntry   time.Time
	LastEntry    time.Time
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add records one entry and prunes everything older than the newest
// maxEntries rows.
func (s *Store) Add(ctx context.Context, kind, content string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (ts, kind, content) VALUES (?, ?, ?)",
		time.Now().UTC(), kind, content)
	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"DELETE FROM entries WHERE id NOT IN (SELECT id FROM entries ORDER BY id DESC LIMIT ?)",
		maxEntries)
	if err != nil {
		logger.WarnCF("history", "Failed to prune history", map[string]any{
			"error": err.Error(),
		})
	}

	logger.DebugCF("history", "History entry added", map[string]any{
		"kind": kind,
	})
	return nil
}

// Recent returns the newest n entries in chronological order. An empty
// kind matches every entry.
func (s *Store) Recent(ctx context.Context, n int, kind string) ([]Entry, error) {
	query := "SELECT id, ts, kind, content FROM entries ORDER BY id DESC LIMIT ?"
	args := []any{n}
	if kind != "" {
		query = "SELECT id, ts, kind, content FROM entries WHERE kind = ? ORDER BY id DESC LIMIT ?"
		args = []any{kind, n}
	}

	entries, err := s.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	slices.Reverse(entries)
	return entries, nil
}

// Search returns the newest limit entries whose content contains q,
// oldest first.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]Entry, error) {
	entries, err := s.queryEntries(ctx,
		"SELECT id, ts, kind, content FROM entries WHERE content LIKE ? ORDER BY id DESC LIMIT ?",
		"%"+q+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search history: %w", err)
	}
	slices.Reverse(entries)
	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	logger.InfoC("history", "History cleared")
	return nil
}

// Stats reports entry counts per kind plus the first and last timestamps.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByKind: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM entries GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to read history stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.ByKind[kind] = count
		stats.TotalEntries += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.TotalEntries == 0 {
		return stats, nil
	}

	// MIN/MAX expressions lose the column's declared type, which the
	// driver needs to produce time.Time; read the boundary rows directly.
	if err := s.db.QueryRowContext(ctx,
		"SELECT ts FROM entries ORDER BY id ASC LIMIT 1").Scan(&stats.FirstEntry); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT ts FROM entries ORDER BY id DESC LIMIT 1").Scan(&stats.LastEntry); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.Content); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
