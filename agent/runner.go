package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/sessions"
)

// upsertAttempts bounds retries when a concurrent writer bumps the session
// version between our read and write.
const upsertAttempts = 3

// Config holds the collaborators a Runner needs.
type Config struct {
	Adapter    llm.Adapter
	Store      sessions.Store
	System     string
	UserID     string
	WorkflowID string
	Logger     zerolog.Logger
}

// Runner drives one adapter against persisted sessions: it loads the session
// history, sends the user's prompt, and persists the updated history.
type Runner struct {
	adapter    llm.Adapter
	store      sessions.Store
	system     string
	userID     string
	workflowID string
	logger     zerolog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		adapter:    cfg.Adapter,
		store:      cfg.Store,
		system:     cfg.System,
		userID:     cfg.UserID,
		workflowID: cfg.WorkflowID,
		logger: cfg.Logger.With().
			Str("component", "runner").
			Str("provider", cfg.Adapter.Provider()).
			Logger(),
	}
}

// Run sends prompt within the given session and returns the model's final
// response plus the session ID (newly generated when sessionID was empty).
func (r *Runner) Run(ctx context.Context, sessionID, prompt string) (*llm.ModelResponse, string, error) {
	session, conv, err := r.loadSession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	conv.Append(llm.NewTextMessage(llm.RoleUser, prompt))
	resp, err := r.adapter.Response(ctx, conv)
	if err != nil {
		return nil, session.SessionID, err
	}

	if err := r.saveSession(ctx, session, conv); err != nil {
		return nil, session.SessionID, err
	}
	return resp, session.SessionID, nil
}

// RunStream is Run with streaming delivery of content deltas through fn.
func (r *Runner) RunStream(ctx context.Context, sessionID, prompt string, fn llm.StreamFunc) (string, error) {
	session, conv, err := r.loadSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	conv.Append(llm.NewTextMessage(llm.RoleUser, prompt))
	if err := r.adapter.ResponseStream(ctx, conv, fn); err != nil {
		return session.SessionID, err
	}

	if err := r.saveSession(ctx, session, conv); err != nil {
		return session.SessionID, err
	}
	return session.SessionID, nil
}

func (r *Runner) loadSession(ctx context.Context, sessionID string) (*sessions.Session, *llm.Conversation, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
		r.logger.Debug().Str("sessionID", sessionID).Msg("Starting new session")
	}

	session, err := r.store.Read(ctx, sessionID)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		session = &sessions.Session{
			SessionID:  sessionID,
			UserID:     r.userID,
			WorkflowID: r.workflowID,
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	conv := &llm.Conversation{}
	if len(session.Memory) > 0 {
		if err := json.Unmarshal(session.Memory, &conv.Messages); err != nil {
			return nil, nil, fmt.Errorf("decode session memory %s: %w", sessionID, err)
		}
	}
	if conv.Len() == 0 && r.system != "" {
		conv.Append(llm.NewTextMessage(llm.RoleSystem, r.system))
	}
	return session, conv, nil
}

func (r *Runner) saveSession(ctx context.Context, session *sessions.Session, conv *llm.Conversation) error {
	memory, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encode session memory: %w", err)
	}
	session.Memory = memory

	for attempt := 1; ; attempt++ {
		stored, err := r.store.Upsert(ctx, session)
		if err == nil {
			*session = *stored
			return nil
		}
		if !errors.Is(err, sessions.ErrVersionConflict) || attempt >= upsertAttempts {
			return fmt.Errorf("persist session %s: %w", session.SessionID, err)
		}
		r.logger.Warn().Str("sessionID", session.SessionID).Int("attempt", attempt).Msg("Session version conflict, retrying")
		current, err := r.store.Read(ctx, session.SessionID)
		if err != nil {
			return fmt.Errorf("re-read session %s: %w", session.SessionID, err)
		}
		session.Version = current.Version
	}
}
