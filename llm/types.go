package llm

import (
	"encoding/json"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a vendor-signaled request to invoke a named local function.
// Arguments is the JSON-encoded argument object exactly as the vendor sent it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is the provider-neutral representation of one conversation turn.
// A message is immutable once appended to a conversation, except for the
// Metrics back-fill performed by the adapter after the vendor call completes.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string // set on tool-role messages; ties a result to its call
	Metrics    map[string]float64
}

// ModelResponse is the provider-neutral result of one model invocation.
// During streaming, each emitted ModelResponse carries only the incremental
// content of a single chunk. Transient; never persisted.
type ModelResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// Conversation is the ordered message list passed between the caller, the
// adapter, and the tool dispatcher. Adapters append assistant and tool
// messages to it as the call progresses.
type Conversation struct {
	Messages []Message
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// Len returns the number of messages in the conversation.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// NewTextMessage creates a plain text message with the given role.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates a tool-role message carrying the result of the
// tool call identified by callID.
func NewToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}

// ToolSpec describes a callable tool in the shape vendors consume: a name, a
// human description, and a JSON-schema parameter object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToJSON marshals a message for debugging and logging.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
