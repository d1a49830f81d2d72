package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one turn of a conversation. Assistant messages may carry tool
// calls; tool messages answer exactly one call via ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolDef describes a callable function offered to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Request struct {
	Model        string
	Temperature  *float64
	Instructions string
	Messages     []Message
	Tools        []ToolDef
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

type Response struct {
	Text      string
	ToolCalls []ToolCall
	Model     string
	Usage     Usage
}

type Provider interface {
	Chat(ctx context.Context, req Request) (*Response, error)
}

// Float is a helper for Request.Temperature.
func Float(v float64) *float64 { return &v }
