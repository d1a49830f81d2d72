// Package llmtest provides scripted llm.Provider implementations for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"agentplatform/internal/llm"
)

// ErrScriptExhausted is returned when a Script has no replies left.
var ErrScriptExhausted = errors.New("llmtest: script exhausted")

// Func adapts a function to llm.Provider.
type Func func(ctx context.Context, req llm.Request) (*llm.Response, error)

func (f Func) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

// Reply is one scripted turn: either a response or an error.
type Reply struct {
	Response *llm.Response
	Err      error
}

// Script replays replies in order and records every request it receives.
type Script struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.Request
}

func NewScript(replies ...Reply) *Script {
	return &Script{replies: replies}
}

func (s *Script) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.replies) == 0 {
		return nil, ErrScriptExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Response, r.Err
}

// Requests returns a copy of the requests seen so far.
func (s *Script) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

// Text is a final answer with no tool calls.
func Text(text string) Reply {
	return Reply{Response: &llm.Response{Text: text}}
}

// Call requests one tool invocation. args is marshalled to JSON.
func Call(name string, args any) Reply {
	return Calls(name, args)
}

// Calls requests several tool invocations in one turn; pairs are name, args.
func Calls(pairs ...any) Reply {
	resp := &llm.Response{}
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:        fmt.Sprintf("call_%d", i/2+1),
			Name:      name,
			Arguments: marshal(pairs[i+1]),
		})
	}
	return Reply{Response: resp}
}

// Fail is a scripted provider error.
func Fail(err error) Reply {
	return Reply{Err: err}
}

func marshal(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
