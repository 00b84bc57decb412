package openai

import (
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/modelrelay/modelrelay/llm"
)

// toVendorMessages converts provider-neutral messages to the OpenAI chat
// message shape.
func toVendorMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	return lo.Map(msgs, func(msg llm.Message, _ int) openai.ChatCompletionMessage {
		return toVendorMessage(msg)
	})
}

func toVendorMessage(msg llm.Message) openai.ChatCompletionMessage {
	var role string
	switch msg.Role {
	case llm.RoleSystem:
		role = openai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		role = openai.ChatMessageRoleAssistant
	case llm.RoleTool:
		role = openai.ChatMessageRoleTool
	default:
		role = openai.ChatMessageRoleUser
	}

	vendorMsg := openai.ChatCompletionMessage{
		Role:       role,
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}

	for _, call := range msg.ToolCalls {
		vendorMsg.ToolCalls = append(vendorMsg.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}

	return vendorMsg
}

// fromVendorToolCalls converts vendor tool calls to the neutral shape,
// preserving emission order.
func fromVendorToolCalls(calls []openai.ToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, 0, len(calls))
	for _, call := range calls {
		out = append(out, llm.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out
}

// toVendorTools converts tool specs to the OpenAI function-calling shape.
func toVendorTools(specs []llm.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		params := spec.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
