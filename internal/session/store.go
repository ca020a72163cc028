package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucasreyna/plata-advisor/internal/events"
)

// Backend persists session snapshots. Implementations must tolerate
// being called with sessions they have never seen (upsert semantics).
type Backend interface {
	// Save writes one session snapshot.
	Save(ctx context.Context, s *Session) error
	// LoadAll returns every persisted session.
	LoadAll(ctx context.Context) ([]*Session, error)
	// Close releases backend resources.
	Close() error
}

// Store is the keyed session store. Fetch-or-create is mutex-guarded so
// concurrent first contacts for the same conversation resolve to one
// Session; the returned *Session itself is not synchronized (see
// [Session]).
type Store struct {
	mu       sync.Mutex
	sessions map[storeKey]*Session

	backend Backend
	bus     *events.Bus
	logger  *slog.Logger
}

type storeKey struct {
	userID         string
	conversationID string
}

// NewStore creates a session store. backend and bus may be nil.
func NewStore(backend Backend, bus *events.Bus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[storeKey]*Session),
		backend:  backend,
		bus:      bus,
		logger:   logger,
	}
}

// GetOrCreate returns the session for (userID, conversationID),
// creating it on first contact. An empty conversationID mints a new
// conversation. The second return value is true when the session was
// created by this call.
func (st *Store) GetOrCreate(userID, conversationID string) (*Session, bool) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	key := storeKey{userID: userID, conversationID: conversationID}
	if s, ok := st.sessions[key]; ok {
		return s, false
	}

	now := time.Now().UTC()
	s := &Session{
		UserID:         userID,
		ConversationID: conversationID,
		Profile: Profile{
			CreatedAt:    now,
			LastActivity: now,
		},
	}
	st.sessions[key] = s

	st.bus.Publish(events.Event{
		Source: events.SourceSessions,
		Kind:   events.KindSessionCreated,
		Data: map[string]any{
			"user_id":         userID,
			"conversation_id": conversationID,
		},
	})
	st.logger.Debug("session created", "user_id", userID, "conversation_id", conversationID)

	return s, true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Snapshot persists every live session through the backend. A nil
// backend makes this a no-op. Errors are aggregated: the first failure
// is returned after attempting every session.
func (st *Store) Snapshot(ctx context.Context) error {
	if st.backend == nil {
		return nil
	}

	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.Unlock()

	var firstErr error
	for _, s := range all {
		if err := st.backend.Save(ctx, s); err != nil {
			st.logger.Warn("session snapshot failed",
				"conversation_id", s.ConversationID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("snapshot %s: %w", s.ConversationID, err)
			}
		}
	}
	return firstErr
}

// Restore loads persisted sessions into the store. Sessions already
// live in memory are not overwritten — memory is the source of truth
// once a conversation is active.
func (st *Store) Restore(ctx context.Context) error {
	if st.backend == nil {
		return nil
	}

	loaded, err := st.backend.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	restored := 0
	for _, s := range loaded {
		key := storeKey{userID: s.UserID, conversationID: s.ConversationID}
		if _, live := st.sessions[key]; live {
			continue
		}
		st.sessions[key] = s
		restored++
	}

	st.logger.Info("sessions restored", "count", restored)
	return nil
}
