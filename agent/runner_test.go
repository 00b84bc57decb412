package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/sessions"
)

// fakeAdapter appends a canned assistant reply, like a real adapter would.
type fakeAdapter struct {
	reply string
	err   error
	calls int
}

func (f *fakeAdapter) Provider() string { return "fake" }
func (f *fakeAdapter) Model() string    { return "fake-model" }

func (f *fakeAdapter) Response(ctx context.Context, conv *llm.Conversation) (*llm.ModelResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	conv.Append(llm.NewTextMessage(llm.RoleAssistant, f.reply))
	return &llm.ModelResponse{Content: f.reply}, nil
}

func (f *fakeAdapter) ResponseStream(ctx context.Context, conv *llm.Conversation, fn llm.StreamFunc) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, r := range f.reply {
		if err := fn(llm.ModelResponse{Content: string(r)}); err != nil {
			return err
		}
	}
	conv.Append(llm.NewTextMessage(llm.RoleAssistant, f.reply))
	return nil
}

func (f *fakeAdapter) LifetimeMetrics() map[string]float64 { return nil }

func newTestRunner(t *testing.T, adapter llm.Adapter) (*Runner, sessions.Store) {
	t.Helper()
	store, err := sessions.NewJSONFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewRunner(Config{
		Adapter: adapter,
		Store:   store,
		System:  "You are helpful.",
		Logger:  zerolog.Nop(),
	}), store
}

func TestRunCreatesAndPersistsSession(t *testing.T) {
	runner, store := newTestRunner(t, &fakeAdapter{reply: "Hi!"})

	resp, sessionID, err := runner.Run(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Hi!" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if sessionID == "" {
		t.Fatal("expected a generated session id")
	}

	session, err := store.Read(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var messages []llm.Message
	if err := json.Unmarshal(session.Memory, &messages); err != nil {
		t.Fatalf("failed to decode memory: %v", err)
	}
	// system, user, assistant
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Role != llm.RoleSystem {
		t.Errorf("expected system message first, got %s", messages[0].Role)
	}
	if messages[2].Content != "Hi!" {
		t.Errorf("unexpected assistant content: %q", messages[2].Content)
	}
}

func TestRunContinuesExistingSession(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeAdapter{reply: "Reply"})
	ctx := context.Background()

	_, sessionID, err := runner.Run(ctx, "", "first")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, sameID, err := runner.Run(ctx, sessionID, "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sameID != sessionID {
		t.Errorf("expected same session id, got %s vs %s", sameID, sessionID)
	}
}

func TestRunSessionHistoryGrows(t *testing.T) {
	runner, store := newTestRunner(t, &fakeAdapter{reply: "ok"})
	ctx := context.Background()

	_, sessionID, err := runner.Run(ctx, "", "one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := runner.Run(ctx, sessionID, "two"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := store.Read(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var messages []llm.Message
	if err := json.Unmarshal(session.Memory, &messages); err != nil {
		t.Fatalf("failed to decode memory: %v", err)
	}
	// system + 2x(user, assistant)
	if len(messages) != 5 {
		t.Errorf("expected 5 messages, got %d", len(messages))
	}
	if session.Version != 2 {
		t.Errorf("expected version 2 after two runs, got %d", session.Version)
	}
}

func TestRunAdapterErrorNotPersisted(t *testing.T) {
	sentinel := errors.New("vendor down")
	runner, store := newTestRunner(t, &fakeAdapter{err: sentinel})

	_, sessionID, err := runner.Run(context.Background(), "", "hello")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected adapter error, got %v", err)
	}
	if _, err := store.Read(context.Background(), sessionID); !errors.Is(err, sessions.ErrSessionNotFound) {
		t.Errorf("expected no persisted session after failure, got %v", err)
	}
}

func TestRunStreamDeliversDeltas(t *testing.T) {
	runner, store := newTestRunner(t, &fakeAdapter{reply: "abc"})

	var got string
	sessionID, err := runner.RunStream(context.Background(), "", "hello", func(resp llm.ModelResponse) error {
		got += resp.Content
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc" {
		t.Errorf("unexpected streamed content: %q", got)
	}
	if _, err := store.Read(context.Background(), sessionID); err != nil {
		t.Errorf("expected session to be persisted: %v", err)
	}
}
