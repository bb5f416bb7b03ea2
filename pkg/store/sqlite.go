package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timeline_id TEXT NOT NULL,
    body BLOB NOT NULL,
    start_ms INTEGER,
    end_ms INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_timeline_events ON events(timeline_id, start_ms);
`

// SQLiteStore persists events in a single SQLite table. The span of each
// event is extracted at append time so range loads filter in SQL; events
// without a parseable span are stored with NULL bounds and never match a
// range.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dataSourceName and creates the
// schema if needed. Use ":memory:" for a private in-memory database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A :memory: database is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendEvents inserts all events in one transaction.
func (s *SQLiteStore) AppendEvents(ctx context.Context, timelineID string, events [][]byte) error {
	if timelineID == "" {
		return ErrEmptyTimelineID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (timeline_id, body, start_ms, end_ms)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, data := range events {
		var startMs, endMs sql.NullInt64
		if span, ok := EventSpan(data); ok {
			startMs = sql.NullInt64{Int64: datetime.Millis(span.Start), Valid: true}
			endMs = sql.NullInt64{Int64: datetime.Millis(span.End), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, timelineID, data, startMs, endMs); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadEvents(ctx context.Context, timelineID string, r *timeline.Range) ([][]byte, error) {
	query := `SELECT body FROM events WHERE timeline_id = ?`
	args := []interface{}{timelineID}
	if r != nil {
		query += ` AND start_ms <= ? AND end_ms >= ?`
		args = append(args, datetime.Millis(r.End), datetime.Millis(r.Start))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	events := [][]byte{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) CountEvents(ctx context.Context, timelineID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE timeline_id = ?`, timelineID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
