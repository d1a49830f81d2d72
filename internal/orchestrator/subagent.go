package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agentplatform/internal/agent"
	"agentplatform/internal/config"
	"agentplatform/internal/llm"
)

var querySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "Self-contained request for this agent",
		},
	},
	"required":             []string{"query"},
	"additionalProperties": false,
}

// SubAgent is a compiled agent definition: its bound tools behind a bounded
// reasoning loop. It implements agent.Tool so the master can call it like
// any other tool; its description is the routing signal.
type SubAgent struct {
	def      config.AgentDefinition
	runner   agent.Runner
	tools    []string
	model    string
	maxSteps int
	timeout  time.Duration
	recorder Recorder
}

func (s *SubAgent) Name() string        { return s.def.Name }
func (s *SubAgent) Description() string { return s.def.Description }
func (s *SubAgent) InputSchema() any    { return querySchema }

// Tools lists the bound tool ids in definition order.
func (s *SubAgent) Tools() []string { return append([]string(nil), s.tools...) }

func (s *SubAgent) Info() AgentInfo {
	return AgentInfo{
		Name:        s.def.Name,
		Description: s.def.Description,
		Tools:       s.Tools(),
		Model:       s.model,
		MaxSteps:    s.maxSteps,
	}
}

// Execute accepts {"query": "..."} or plain text.
func (s *SubAgent) Execute(ctx context.Context, input string) (string, error) {
	res, err := s.Invoke(ctx, parseQuery(input), nil)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Invoke runs the agent on query with optional prior conversation.
func (s *SubAgent) Invoke(ctx context.Context, query string, history []llm.Message) (*agent.RunResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	start := time.Now()
	res, err := s.runner.Run(ctx, messages)
	s.recorder.RecordAgentCall(ctx, s.def.Name, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", s.def.Name, err)
	}
	return res, nil
}

func parseQuery(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") {
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(trimmed), &args); err == nil && args.Query != "" {
			return args.Query
		}
	}
	return trimmed
}
