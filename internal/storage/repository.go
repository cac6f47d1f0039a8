package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryEntry is one command line entered at the prompt.
type HistoryEntry struct {
	ID   int64
	Line string
	At   time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  line TEXT NOT NULL,
  entered_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS history_entered_at ON history(entered_at);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable verifies that the database file accepts writes.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO history (line, entered_at) VALUES ('', '')`); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	return nil
}

func (r *Repository) Append(ctx context.Context, line string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO history (line, entered_at)
VALUES (?, ?)
`, line, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save history line: %w", err)
	}
	return nil
}

// Recent returns the last limit lines, oldest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, line, entered_at
FROM history
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var entry HistoryEntry
		var enteredAt string
		if err := rows.Scan(&entry.ID, &entry.Line, &enteredAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.At, err = time.Parse(time.RFC3339Nano, enteredAt)
		if err != nil {
			return nil, fmt.Errorf("parse history entered_at %q: %w", enteredAt, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
