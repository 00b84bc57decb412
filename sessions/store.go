package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrVersionConflict is returned by Upsert when the stored session has moved
// past the version the caller read. The caller should re-read and retry.
var ErrVersionConflict = errors.New("session version conflict")

// Session is one persisted conversation session. Memory holds the serialized
// message history; SessionData holds arbitrary application state.
type Session struct {
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id,omitempty"`
	WorkflowID  string          `json:"workflow_id,omitempty"`
	Memory      json.RawMessage `json:"memory,omitempty"`
	SessionData json.RawMessage `json:"session_data,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	// Version increments on every successful Upsert. A Version of zero
	// means the session has never been stored.
	Version int64 `json:"version"`
}

// Store persists sessions.
type Store interface {
	// Read returns the session with the given ID, or ErrSessionNotFound.
	Read(ctx context.Context, sessionID string) (*Session, error)

	// Upsert inserts or updates the session and returns the stored copy
	// with Version and timestamps advanced. It returns ErrVersionConflict
	// when the stored version no longer matches session.Version.
	Upsert(ctx context.Context, session *Session) (*Session, error)

	// DeleteSession removes a session. Deleting a missing session is not
	// an error.
	DeleteSession(ctx context.Context, sessionID string) error

	// GetAllSessionIDs lists session IDs, optionally filtered by user
	// and/or workflow. Empty filters match everything.
	GetAllSessionIDs(ctx context.Context, userID, workflowID string) ([]string, error)

	// GetAllSessions lists sessions with the same filtering as
	// GetAllSessionIDs.
	GetAllSessions(ctx context.Context, userID, workflowID string) ([]*Session, error)
}
