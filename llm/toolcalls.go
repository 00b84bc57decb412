package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// MaxToolTurns caps how many follow-up model calls an adapter will make while
// resolving tool calls before giving up.
const MaxToolTurns = 20

// RunToolCalls executes accumulated tool-call descriptors through the
// dispatcher and appends one tool-role result message per call. A dispatch
// failure is logged and fed back to the model as an error payload tagged with
// the originating call id; it never aborts the conversation.
func RunToolCalls(ctx context.Context, d Dispatcher, calls []ToolCall, conv *Conversation, logger zerolog.Logger) {
	for _, call := range calls {
		result, err := d.Dispatch(ctx, call)
		if err != nil {
			logger.Warn().
				Str("tool", call.Name).
				Str("toolCallID", call.ID).
				Err(err).
				Msg("Tool call failed; returning error payload to model")
			payload, merr := json.Marshal(map[string]string{"error": err.Error()})
			if merr != nil {
				payload = []byte(`{"error":"tool execution failed"}`)
			}
			result = string(payload)
		}
		conv.Append(NewToolResultMessage(call.ID, result))
	}
}

// ErrToolLoopExceeded is returned when the tool loop runs past MaxToolTurns
// without the model producing a terminal response.
func ErrToolLoopExceeded(provider, model string) error {
	return fmt.Errorf("%s: tool loop exceeded %d turns for model %s", provider, MaxToolTurns, model)
}

// ErrRepeatedToolFailure is returned when the model re-issues the exact tool
// calls that just failed, which would otherwise loop until MaxToolTurns.
func ErrRepeatedToolFailure(provider, model string) error {
	return fmt.Errorf("%s: model %s repeated failing tool calls", provider, model)
}

// HasRepeatedFailingCalls reports whether the trailing assistant message
// re-issues the same tool calls as the previous assistant turn after every one
// of that turn's results came back as an error payload.
func HasRepeatedFailingCalls(conv *Conversation) bool {
	var prev, last int
	prev, last = -1, -1
	for i, msg := range conv.Messages {
		if msg.Role == RoleAssistant && len(msg.ToolCalls) > 0 {
			prev, last = last, i
		}
	}
	if prev < 0 || last < 0 {
		return false
	}
	if !sameToolCalls(conv.Messages[prev].ToolCalls, conv.Messages[last].ToolCalls) {
		return false
	}
	for _, msg := range conv.Messages[prev+1 : last] {
		if msg.Role != RoleTool {
			continue
		}
		var payload map[string]json.RawMessage
		if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
			return false
		}
		if _, ok := payload["error"]; !ok {
			return false
		}
	}
	return true
}

func sameToolCalls(a, b []ToolCall) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Arguments != b[i].Arguments {
			return false
		}
	}
	return true
}
