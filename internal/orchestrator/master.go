package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"agentplatform/internal/agent"
	"agentplatform/internal/llm"
	"agentplatform/internal/trace"
)

const (
	DefaultMaxAgentCalls     = 5
	DefaultMasterTemperature = 0.1
)

type MasterOptions struct {
	// Model for routing decisions; empty means the provider default.
	Model         string
	Temperature   *float64
	MaxAgentCalls int
	LLMTimeout    time.Duration
	Recorder      Recorder
}

// Master routes requests across one immutable Set of agents. A new Master is
// built for every configuration snapshot; it is never modified afterwards.
type Master struct {
	set          *Set
	provider     llm.Provider
	model        string
	temperature  float64
	maxCalls     int
	llmTimeout   time.Duration
	recorder     Recorder
	instructions string
	tools        []llm.ToolDef
	builtAt      time.Time
}

func NewMaster(set *Set, provider llm.Provider, opts MasterOptions) (*Master, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrNoAgents
	}

	m := &Master{
		set:         set,
		provider:    provider,
		model:       opts.Model,
		temperature: DefaultMasterTemperature,
		maxCalls:    opts.MaxAgentCalls,
		llmTimeout:  opts.LLMTimeout,
		recorder:    opts.Recorder,
		builtAt:     time.Now(),
	}
	if opts.Temperature != nil {
		m.temperature = *opts.Temperature
	}
	if m.maxCalls <= 0 {
		m.maxCalls = DefaultMaxAgentCalls
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}

	registry := agent.NewRegistry()
	for _, a := range set.Agents() {
		registry.Register(a)
	}
	m.tools = registry.Definitions()
	m.instructions = masterInstructions(set.Info())
	return m, nil
}

func (m *Master) Agents() []AgentInfo { return m.set.Info() }
func (m *Master) Set() *Set           { return m.set }
func (m *Master) BuiltAt() time.Time  { return m.builtAt }

// Execute serves one request. It never returns an error and never panics:
// every failure ends up in the Result.
func (m *Master) Execute(ctx context.Context, req Request) (res *Result) {
	start := time.Now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = agent.ContextWithRequestID(ctx, requestID)

	ctx, span := trace.Tracer().Start(ctx, "orchestrator.execute",
		oteltrace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.target_agent", req.TargetAgent),
			attribute.Int("request.history_len", len(req.History)),
		),
	)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("orchestration panic", "request_id", requestID, "panic", r, "stack", string(debug.Stack()))
			res = Failure(requestID, CodeInternal)
		}
		span.SetAttributes(
			attribute.Bool("result.success", res.Success),
			attribute.Int("result.steps", len(res.Steps)),
			attribute.StringSlice("result.agents_used", res.AgentsUsed),
		)
		if !res.Success {
			span.SetStatus(codes.Error, res.ErrorCode)
		}
		span.End()
		m.recorder.RecordRequest(ctx, res.Outcome(), time.Since(start))
	}()

	if strings.TrimSpace(req.Message) == "" {
		return Failure(requestID, CodeInvalidRequest)
	}

	if req.TargetAgent != "" {
		if sa, ok := m.set.Get(req.TargetAgent); ok {
			return m.direct(ctx, requestID, sa, req)
		}
		slog.Warn("unknown target agent, routing instead", "request_id", requestID, "agent", req.TargetAgent)
	}
	return m.route(ctx, requestID, req)
}

// direct invokes the requested agent once with the full conversation.
func (m *Master) direct(ctx context.Context, requestID string, sa *SubAgent, req Request) *Result {
	res := &Result{RequestID: requestID}
	res.Steps = append(res.Steps, m.invoke(ctx, sa, 1, req.Message, req.History))
	res.finish("")
	return res
}

func (m *Master) route(ctx context.Context, requestID string, req Request) *Result {
	res := &Result{RequestID: requestID, Steps: []Step{}}

	messages := make([]llm.Message, 0, len(req.History)+1+2*m.maxCalls)
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})

	answer := ""
	for turn := 0; ; turn++ {
		resp, err := m.decide(ctx, messages, turn)
		if err != nil {
			slog.Warn("routing decision failed", "request_id", requestID, "turn", turn, "error", err)
			if len(res.Steps) == 0 {
				return Failure(requestID, CodeLLMUnavailable)
			}
			res.ErrorCode = CodeLLMUnavailable
			break
		}
		if resp.Text != "" {
			res.TopLevelReasoning = resp.Text
		}

		if len(resp.ToolCalls) == 0 {
			answer = resp.Text
			break
		}
		if len(res.Steps) >= m.maxCalls {
			slog.Warn("agent call limit reached", "request_id", requestID, "max_agent_calls", m.maxCalls)
			res.Exhausted = true
			break
		}
		if len(resp.ToolCalls) > 1 {
			slog.Debug("model requested several agents, using the first", "request_id", requestID, "calls", len(resp.ToolCalls))
		}

		call := resp.ToolCalls[0]
		order := len(res.Steps) + 1
		var step Step
		if sa, ok := m.set.Get(call.Name); ok {
			step = m.invoke(ctx, sa, order, parseQuery(call.Arguments), nil)
		} else {
			slog.Warn("model selected unknown agent", "request_id", requestID, "agent", call.Name)
			step = Step{
				Order:       order,
				Executor:    call.Name,
				Input:       call.Arguments,
				Observation: fmt.Sprintf("error: no agent named %q", call.Name),
				IsError:     true,
			}
		}
		res.Steps = append(res.Steps, step)

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: resp.Text, ToolCalls: []llm.ToolCall{call}},
			llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: step.Observation},
		)
	}

	res.finish(answer)
	if res.ErrorCode == CodeLLMUnavailable && res.Success {
		res.ErrorCode = ""
	}
	return res
}

func (m *Master) invoke(ctx context.Context, sa *SubAgent, order int, query string, history []llm.Message) Step {
	emit := agent.EmitFromContext(ctx)
	emit(agent.Event{Type: agent.EventAgentCall, Data: map[string]any{
		"order": order,
		"agent": sa.Name(),
		"input": query,
	}})

	step := Step{Order: order, Executor: sa.Name(), Input: query, resolved: true}
	out, err := sa.Invoke(ctx, query, history)
	if err != nil {
		slog.Warn("agent invocation failed", "request_id", agent.RequestIDFromContext(ctx), "agent", sa.Name(), "step", order, "error", err)
		step.Observation = "error: " + err.Error()
		step.IsError = true
	} else {
		step.Observation = out.Text
		step.ToolsUsed = out.ToolsUsed
		if out.Exhausted {
			slog.Info("agent returned partial answer", "request_id", agent.RequestIDFromContext(ctx), "agent", sa.Name(), "steps", out.Steps)
		}
	}

	emit(agent.Event{Type: agent.EventAgentResult, Data: map[string]any{
		"order":       order,
		"agent":       sa.Name(),
		"observation": step.Observation,
		"isError":     step.IsError,
		"toolsUsed":   step.ToolsUsed,
	}})
	return step
}

func (m *Master) decide(ctx context.Context, messages []llm.Message, turn int) (*llm.Response, error) {
	if m.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.llmTimeout)
		defer cancel()
	}

	ctx, span := trace.Tracer().Start(ctx, "llm.call",
		oteltrace.WithAttributes(
			attribute.String("gen_ai.agent.name", "master"),
			attribute.Int("llm.iteration", turn),
		),
	)
	defer span.End()

	resp, err := m.provider.Chat(ctx, llm.Request{
		Model:        m.model,
		Temperature:  llm.Float(m.temperature),
		Instructions: m.instructions,
		Messages:     messages,
		Tools:        m.tools,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("provider returned no response")
	}
	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
	)
	return resp, nil
}
