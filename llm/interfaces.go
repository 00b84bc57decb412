package llm

import (
	"context"
)

// StreamFunc receives one ModelResponse per incremental chunk during a
// streamed call. Returning an error aborts the stream.
type StreamFunc func(ModelResponse) error

// Adapter translates between the provider-neutral Message/ModelResponse shape
// and one vendor's API shape. Implementations append assistant and tool
// messages to the conversation as the call progresses and keep the tool loop
// going until a response carries zero tool calls.
type Adapter interface {
	// Provider returns the vendor name, e.g. "groq".
	Provider() string

	// Model returns the model id this adapter invokes.
	Model() string

	// Response runs one blocking invocation, appending the resulting messages
	// to conv. On failure the conversation is left unmodified.
	Response(ctx context.Context, conv *Conversation) (*ModelResponse, error)

	// ResponseStream runs one streamed invocation, calling fn once per
	// incremental content chunk. The assistant message appended to conv
	// carries the full concatenation, not the final chunk alone.
	ResponseStream(ctx context.Context, conv *Conversation, fn StreamFunc) error

	// LifetimeMetrics returns the counters accumulated across every call made
	// through this adapter instance.
	LifetimeMetrics() map[string]float64
}

// Dispatcher executes a single tool call and returns the JSON-encoded result.
// It is the external collaborator adapters hand accumulated tool-call
// descriptors to; adapters never execute tools themselves.
type Dispatcher interface {
	Dispatch(ctx context.Context, call ToolCall) (string, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, call ToolCall) (string, error)

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, call ToolCall) (string, error) {
	return f(ctx, call)
}
