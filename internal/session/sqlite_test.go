package session

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/lucasreyna/plata-advisor/internal/analyzer"
)

func setupTestBackend(t *testing.T) *SQLiteBackend {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b, err := NewSQLiteBackend(db)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	return b
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	s := &Session{UserID: "u1", ConversationID: "c1"}
	s.Profile.KnowledgeLevel = analyzer.LevelAdvanced
	s.Profile.ExploredTopics = []string{"riesgo"}
	s.AppendMessage(RoleUser, "¿qué es un etf?", &analyzer.Analysis{
		QueryType: analyzer.QueryEducational,
	})
	s.Flow.Turns = 1

	if err := b.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("len(loaded) = %d, want 1", len(loaded))
	}

	got := loaded[0]
	if got.UserID != "u1" || got.ConversationID != "c1" {
		t.Errorf("loaded key = (%q, %q), want (u1, c1)", got.UserID, got.ConversationID)
	}
	if got.Profile.KnowledgeLevel != analyzer.LevelAdvanced {
		t.Errorf("KnowledgeLevel = %q, want %q", got.Profile.KnowledgeLevel, analyzer.LevelAdvanced)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "¿qué es un etf?" {
		t.Errorf("messages not restored: %+v", got.Messages)
	}
	if got.Messages[0].Analysis == nil || got.Messages[0].Analysis.QueryType != analyzer.QueryEducational {
		t.Error("message analysis not restored")
	}
	if got.Flow.Turns != 1 {
		t.Errorf("Turns = %d, want 1", got.Flow.Turns)
	}
}

func TestSQLiteBackendUpsert(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	s := &Session{UserID: "u1", ConversationID: "c1"}
	if err := b.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	s.Flow.Turns = 5
	if err := b.Save(ctx, s); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("len(loaded) = %d, want 1 (upsert, not duplicate)", len(loaded))
	}
	if loaded[0].Flow.Turns != 5 {
		t.Errorf("Turns = %d, want 5", loaded[0].Flow.Turns)
	}
}

func TestSnapshotRestoreThroughStore(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	st := NewStore(b, nil, nil)
	s, _ := st.GetOrCreate("u1", "c1")
	s.AppendMessage(RoleUser, "hola", nil)
	s.Flow.Turns = 1

	if err := st.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// Fresh store over the same backend simulates a restart.
	st2 := NewStore(b, nil, nil)
	if err := st2.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if st2.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st2.Len())
	}

	restored, created := st2.GetOrCreate("u1", "c1")
	if created {
		t.Error("restored session should be found, not created")
	}
	if restored.Flow.Turns != 1 || len(restored.Messages) != 1 {
		t.Errorf("restored session incomplete: turns=%d messages=%d",
			restored.Flow.Turns, len(restored.Messages))
	}
}

func TestRestoreDoesNotOverwriteLiveSessions(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	stale := &Session{UserID: "u1", ConversationID: "c1"}
	stale.Flow.Turns = 1
	if err := b.Save(ctx, stale); err != nil {
		t.Fatalf("save: %v", err)
	}

	st := NewStore(b, nil, nil)
	live, _ := st.GetOrCreate("u1", "c1")
	live.Flow.Turns = 7

	if err := st.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	got, _ := st.GetOrCreate("u1", "c1")
	if got.Flow.Turns != 7 {
		t.Errorf("Turns = %d, want live session kept over persisted one", got.Flow.Turns)
	}
}
