package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteBackend persists session snapshots as JSON rows. The whole
// session serializes into one column: snapshots are read back only at
// startup, so there is nothing to query inside the state.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates a snapshot backend on an open database
// handle. The schema is created on first use.
func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_snapshots (
			user_id         TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			state_json      TEXT NOT NULL,
			updated_at      TEXT NOT NULL,
			PRIMARY KEY (user_id, conversation_id)
		);
	`)
	return err
}

// Save upserts one session snapshot.
func (b *SQLiteBackend) Save(ctx context.Context, s *Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (user_id, conversation_id, state_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, conversation_id)
		DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, s.UserID, s.ConversationID, string(state), time.Now().UTC().Format(time.RFC3339))

	return err
}

// LoadAll returns every persisted session. Rows whose state fails to
// unmarshal are skipped rather than failing the whole restore.
func (b *SQLiteBackend) LoadAll(ctx context.Context) ([]*Session, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT state_json FROM session_snapshots ORDER BY updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var state string
		if err := rows.Scan(&state); err != nil {
			return nil, err
		}
		var s Session
		if err := json.Unmarshal([]byte(state), &s); err != nil {
			continue
		}
		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}

// Close is a no-op: the backend does not own the database handle.
func (b *SQLiteBackend) Close() error { return nil }
