package classifier

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeedbackRecord is one persisted feedback event. Records are
// append-only; the training set is rebuilt from them on restart.
type FeedbackRecord struct {
	ID           string
	Timestamp    time.Time
	Message      string
	ResponseType string
	Label        string
	Quality      float64
}

// Store is an append-only SQLite store for feedback records. All public
// methods are safe for concurrent use (SQLite serializes writes).
type Store struct {
	db *sql.DB
}

// NewStore creates a feedback store on an open database handle. The
// schema is created automatically on first use.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate feedback schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_records (
			id            TEXT PRIMARY KEY,
			timestamp     TEXT NOT NULL,
			message       TEXT NOT NULL,
			response_type TEXT NOT NULL,
			label         TEXT NOT NULL,
			quality       REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_timestamp ON feedback_records(timestamp);
	`)
	return err
}

// Append persists a feedback record. If rec.ID is empty, a UUIDv7 is
// generated so insertion order survives in the primary key.
func (s *Store) Append(ctx context.Context, rec FeedbackRecord) error {
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate feedback record ID: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_records (id, timestamp, message, response_type, label, quality)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Message,
		rec.ResponseType,
		rec.Label,
		rec.Quality,
	)
	return err
}

// All returns every feedback record in insertion order.
func (s *Store) All(ctx context.Context) ([]FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, message, response_type, label, quality
		 FROM feedback_records ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FeedbackRecord
	for rows.Next() {
		var rec FeedbackRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.Message, &rec.ResponseType, &rec.Label, &rec.Quality); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = parsed
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
