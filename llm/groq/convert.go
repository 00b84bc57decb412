package groq

import (
	"github.com/samber/lo"

	"github.com/modelrelay/modelrelay/llm"
)

func toWireMessages(messages []llm.Message) []wireMessage {
	return lo.Map(messages, func(m llm.Message, _ int) wireMessage {
		return toWireMessage(m)
	})
}

func toWireMessage(m llm.Message) wireMessage {
	wm := wireMessage{
		Role:       string(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: wireFunction{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return wm
}

func fromWireToolCalls(calls []wireToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func toWireTools(specs []llm.ToolSpec) []wireTool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]wireTool, 0, len(specs))
	for _, spec := range specs {
		params := spec.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunctionDef{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
