package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// SQLiteStore persists sessions in a sessions table. Concurrent writers are
// serialized with optimistic locking on the version column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store backed by an open database handle. The
// sessions table must already exist; see the migrations package.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Read returns the session with the given ID.
func (s *SQLiteStore) Read(ctx context.Context, sessionID string) (*Session, error) {
	query := sq.Select("session_id", "user_id", "workflow_id", "memory", "session_data", "created_at", "updated_at", "version").
		From("sessions").
		Where(sq.Eq{"session_id": sessionID})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	session, err := scanSession(s.db.QueryRowContext(ctx, queryStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// Upsert inserts the session when Version is zero, otherwise updates it only
// if the stored version still matches.
func (s *SQLiteStore) Upsert(ctx context.Context, session *Session) (*Session, error) {
	now := time.Now().UTC()
	stored := *session
	stored.UpdatedAt = now

	if session.Version == 0 {
		stored.CreatedAt = now
		stored.Version = 1
		query := sq.Insert("sessions").
			Columns("session_id", "user_id", "workflow_id", "memory", "session_data", "created_at", "updated_at", "version").
			Values(stored.SessionID, stored.UserID, stored.WorkflowID, []byte(stored.Memory), []byte(stored.SessionData), stored.CreatedAt.Unix(), stored.UpdatedAt.Unix(), stored.Version)

		queryStr, args, err := query.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build query: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, queryStr, args...); err != nil {
			if isUniqueViolation(err) {
				return nil, ErrVersionConflict
			}
			return nil, err
		}
		return &stored, nil
	}

	stored.Version = session.Version + 1
	query := sq.Update("sessions").
		Set("user_id", stored.UserID).
		Set("workflow_id", stored.WorkflowID).
		Set("memory", []byte(stored.Memory)).
		Set("session_data", []byte(stored.SessionData)).
		Set("updated_at", stored.UpdatedAt.Unix()).
		Set("version", stored.Version).
		Where(sq.Eq{"session_id": stored.SessionID, "version": session.Version})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	result, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrVersionConflict
	}
	return &stored, nil
}

// DeleteSession removes a session if it exists.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	query := sq.Delete("sessions").Where(sq.Eq{"session_id": sessionID})
	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// GetAllSessionIDs lists session IDs filtered by user and/or workflow.
func (s *SQLiteStore) GetAllSessionIDs(ctx context.Context, userID, workflowID string) ([]string, error) {
	query := applyFilters(sq.Select("session_id").From("sessions").OrderBy("created_at DESC"), userID, workflowID)
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetAllSessions lists sessions filtered by user and/or workflow.
func (s *SQLiteStore) GetAllSessions(ctx context.Context, userID, workflowID string) ([]*Session, error) {
	query := applyFilters(
		sq.Select("session_id", "user_id", "workflow_id", "memory", "session_data", "created_at", "updated_at", "version").
			From("sessions").
			OrderBy("created_at DESC"),
		userID, workflowID)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func applyFilters(query sq.SelectBuilder, userID, workflowID string) sq.SelectBuilder {
	if userID != "" {
		query = query.Where(sq.Eq{"user_id": userID})
	}
	if workflowID != "" {
		query = query.Where(sq.Eq{"workflow_id": workflowID})
	}
	return query
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session            Session
		memory             []byte
		sessionData        []byte
		createdAt, updated int64
	)
	err := row.Scan(&session.SessionID, &session.UserID, &session.WorkflowID, &memory, &sessionData, &createdAt, &updated, &session.Version)
	if err != nil {
		return nil, err
	}
	session.Memory = memory
	session.SessionData = sessionData
	session.CreatedAt = time.Unix(createdAt, 0).UTC()
	session.UpdatedAt = time.Unix(updated, 0).UTC()
	return &session, nil
}

func isUniqueViolation(err error) bool {
	// go-sqlite3 reports constraint failures in the error text; matching
	// on it avoids importing the driver here.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
