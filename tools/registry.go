package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/modelrelay/modelrelay/llm"
)

// Handler executes one tool call. The returned value is serialized to JSON
// before being handed back to the model.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps tool names to handlers and dispatches model tool calls.
// It implements llm.Dispatcher.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	specs    map[string]llm.ToolSpec
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	logger = logger.With().Str("component", "tool_registry").Logger()
	return &Registry{
		handlers: make(map[string]Handler),
		specs:    make(map[string]llm.ToolSpec),
		logger:   logger,
	}
}

// Register registers a handler for a tool. Registering the same name twice
// replaces the earlier handler.
func (r *Registry) Register(spec llm.ToolSpec, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug().Str("name", spec.Name).Msg("Registering tool handler")
	r.handlers[spec.Name] = h
	r.specs[spec.Name] = spec
}

// Specs returns the registered tool specs sorted by name, for handing to an
// adapter configuration.
func (r *Registry) Specs() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch runs the named tool and returns its result serialized as JSON.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) (string, error) {
	r.mu.RLock()
	h, ok := r.handlers[call.Name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error().Str("tool", call.Name).Msg("Unknown tool requested")
		return "", fmt.Errorf("unknown tool: %s", call.Name)
	}

	r.logger.Info().Str("tool", call.Name).Str("call_id", call.ID).Msg("Executing tool")
	args := json.RawMessage(call.Arguments)
	if len(args) == 0 || !json.Valid(args) {
		// Vendors occasionally emit empty or truncated argument JSON.
		if len(args) > 0 {
			r.logger.Warn().Str("tool", call.Name).Str("args", call.Arguments).Msg("Malformed tool arguments, using empty object")
		}
		args = json.RawMessage("{}")
	}

	result, err := h(ctx, args)
	if err != nil {
		r.logger.Warn().Str("tool", call.Name).Err(err).Msg("Tool returned error")
		return "", err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		r.logger.Error().Str("tool", call.Name).Err(err).Msg("Tool result is not serializable")
		return "", fmt.Errorf("serialize result of %s: %w", call.Name, err)
	}

	out := string(encoded)
	logged := out
	if len(logged) > 500 {
		logged = logged[:500] + "... (truncated)"
	}
	r.logger.Debug().Str("tool", call.Name).Str("result", logged).Msg("Tool returned result")
	return out, nil
}
