package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/shape-watch/internal/detection"
)

const journalSchema = `
	CREATE TABLE IF NOT EXISTS label_events (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id        TEXT NOT NULL,
		seq               INTEGER NOT NULL,
		time              TEXT NOT NULL,
		label             TEXT NOT NULL,
		shape             TEXT NOT NULL,
		size              TEXT NOT NULL,
		area              DOUBLE,
		color             TEXT,
		stable            INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_label_events_session ON label_events(session_id, seq);
`

// Journal persists events in an SQLite database.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One writer at a time; the frame loop is the only producer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Emit appends e.
func (j *Journal) Emit(ctx context.Context, e Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO label_events (session_id, seq, time, label, shape, size, area, color, stable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, int64(e.Seq), e.Time.UTC().Format(time.RFC3339Nano), e.Label,
		string(e.Shape), string(e.Size), e.Area, e.Color, e.Stable,
	)
	if err != nil {
		return fmt.Errorf("failed to record label event: %w", err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		return []Event{}, nil
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, time, label, shape, size, area, color, stable
		FROM label_events
		ORDER BY id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query label events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, n)
	for rows.Next() {
		var (
			e      Event
			seq    int64
			ts     string
			shape  string
			size   string
			area   sql.NullFloat64
			color  sql.NullString
			stable bool
		)
		if err := rows.Scan(&e.SessionID, &seq, &ts, &e.Label, &shape, &size, &area, &color, &stable); err != nil {
			return nil, fmt.Errorf("failed to scan label event: %w", err)
		}
		if e.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse event time %q: %w", ts, err)
		}
		e.Seq = uint64(seq)
		e.Shape = detection.Shape(shape)
		e.Size = detection.Size(size)
		e.Area = area.Float64
		e.Color = color.String
		e.Stable = stable
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of stored events.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM label_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count label events: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
