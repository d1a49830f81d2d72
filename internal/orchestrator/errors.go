package orchestrator

import (
	"errors"
	"fmt"
)

// Error codes reported in Result.ErrorCode.
const (
	CodeLLMUnavailable   = "llm_unavailable"
	CodeRoutingExhausted = "routing_exhausted"
	CodeAgentFailed      = "agent_failed"
	CodeInvalidRequest   = "invalid_request"
	CodeInternal         = "internal_error"
	CodeNotReady         = "not_ready"
)

// GenericApology is the only failure text a caller ever sees.
const GenericApology = "Sorry, I couldn't complete your request right now. Please try again later."

var (
	// ErrRoutingExhausted is reported through Result.Err when the agent call
	// bound stopped routing.
	ErrRoutingExhausted = errors.New("routing exhausted: agent call limit reached")
	ErrNoAgents         = errors.New("no compiled agents")
)

// BuildError reports an agent that failed to compile. It never affects the
// other agents of the same snapshot.
type BuildError struct {
	Agent string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build agent %q: %v", e.Agent, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
