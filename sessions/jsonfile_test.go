package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func setupJSONStore(t *testing.T) *JSONFileStore {
	t.Helper()
	store, err := NewJSONFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestJSONFileUpsertAndRead(t *testing.T) {
	store := setupJSONStore(t)
	ctx := context.Background()

	stored, err := store.Upsert(ctx, &Session{
		SessionID:   "s1",
		UserID:      "u1",
		SessionData: json.RawMessage(`{"topic":"weather"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("expected version 1, got %d", stored.Version)
	}

	got, err := store.Read(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.SessionData) != `{"topic":"weather"}` {
		t.Errorf("unexpected session data: %s", got.SessionData)
	}
}

func TestJSONFileVersionConflict(t *testing.T) {
	store := setupJSONStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, &Session{SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Upsert(ctx, first); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestJSONFileCreatedAtPreserved(t *testing.T) {
	store := setupJSONStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, &Session{SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Upsert(ctx, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("expected created_at to be preserved: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestJSONFileDeleteAndList(t *testing.T) {
	store := setupJSONStore(t)
	ctx := context.Background()

	for _, s := range []*Session{
		{SessionID: "a", UserID: "u1"},
		{SessionID: "b", UserID: "u2"},
	} {
		if _, err := store.Upsert(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ids, err := store.GetAllSessionIDs(ctx, "u1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("unexpected ids: %v", ids)
	}

	if err := store.DeleteSession(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Read(ctx, "a"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.DeleteSession(ctx, "a"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}
