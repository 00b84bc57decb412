package llm

import (
	"encoding/json"
	"testing"
)

func TestConversationAppend(t *testing.T) {
	conv := &Conversation{}
	conv.Append(NewTextMessage(RoleSystem, "be brief"))
	conv.Append(NewTextMessage(RoleUser, "hi"))

	if conv.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", conv.Len())
	}
	if conv.Messages[0].Role != RoleSystem || conv.Messages[1].Content != "hi" {
		t.Errorf("unexpected messages: %+v", conv.Messages)
	}
}

func TestNewToolResultMessage(t *testing.T) {
	msg := NewToolResultMessage("call_7", `{"ok":true}`)
	if msg.Role != RoleTool {
		t.Errorf("expected tool role, got %s", msg.Role)
	}
	if msg.ToolCallID != "call_7" {
		t.Errorf("expected call id call_7, got %s", msg.ToolCallID)
	}
	if msg.Content != `{"ok":true}` {
		t.Errorf("unexpected content: %q", msg.Content)
	}
}

func TestMessageToJSON(t *testing.T) {
	msg := Message{
		Role:      RoleAssistant,
		Content:   "done",
		ToolCalls: []ToolCall{{ID: "call_1", Name: "f", Arguments: "{}"}},
		Metrics:   map[string]float64{MetricInputTokens: 3},
	}
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if back.Role != RoleAssistant || len(back.ToolCalls) != 1 || back.Metrics[MetricInputTokens] != 3 {
		t.Errorf("round trip lost data: %+v", back)
	}
}
