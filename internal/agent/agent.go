package agent

import (
	"context"

	"agentplatform/internal/llm"
)

type EventType string

const (
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventAgentCall   EventType = "agent_call"
	EventAgentResult EventType = "agent_result"
	EventDone        EventType = "done"
	EventError       EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// RunResult is the outcome of one bounded reasoning loop.
type RunResult struct {
	Text string
	// Steps counts model decisions.
	Steps int
	// ToolsUsed lists distinct tools invoked, in first-use order.
	ToolsUsed []string
	// Exhausted is set when the step bound stopped the loop; Text is then
	// the best partial answer.
	Exhausted bool
}

type Runner interface {
	Run(ctx context.Context, messages []llm.Message) (*RunResult, error)
}
