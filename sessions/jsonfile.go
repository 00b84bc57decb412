package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// JSONFileStore persists each session as one pretty-printed JSON file in a
// directory. Useful for local development and tests; for anything concurrent
// use SQLiteStore.
type JSONFileStore struct {
	mu  sync.Mutex
	dir string
}

// NewJSONFileStore creates the directory if needed and returns a store over it.
func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &JSONFileStore{dir: dir}, nil
}

func (s *JSONFileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Read returns the session with the given ID.
func (s *JSONFileStore) Read(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(sessionID)
}

func (s *JSONFileStore) readLocked(sessionID string) (*Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Upsert writes the session file, enforcing the same optimistic versioning
// as the SQLite store.
func (s *JSONFileStore) Upsert(ctx context.Context, session *Session) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readLocked(session.SessionID)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	stored := *session
	stored.UpdatedAt = now

	switch {
	case existing == nil && session.Version != 0:
		return nil, ErrVersionConflict
	case existing != nil && existing.Version != session.Version:
		return nil, ErrVersionConflict
	case existing == nil:
		stored.CreatedAt = now
	default:
		stored.CreatedAt = existing.CreatedAt
	}
	stored.Version = session.Version + 1

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", stored.SessionID, err)
	}
	if err := os.WriteFile(s.path(stored.SessionID), data, 0o644); err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeleteSession removes the session file if it exists.
func (s *JSONFileStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// GetAllSessionIDs lists session IDs filtered by user and/or workflow.
func (s *JSONFileStore) GetAllSessionIDs(ctx context.Context, userID, workflowID string) ([]string, error) {
	sessions, err := s.GetAllSessions(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}
	return lo.Map(sessions, func(session *Session, _ int) string {
		return session.SessionID
	}), nil
}

// GetAllSessions lists sessions filtered by user and/or workflow, newest
// first.
func (s *JSONFileStore) GetAllSessions(ctx context.Context, userID, workflowID string) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []*Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		session, err := s.readLocked(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if userID != "" && session.UserID != userID {
			continue
		}
		if workflowID != "" && session.WorkflowID != workflowID {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
