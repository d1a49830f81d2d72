package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"agentplatform/internal/llm"
	"agentplatform/internal/trace"
)

const DefaultMaxSteps = 5

type ReactOption func(*ReactRunner)

func WithName(name string) ReactOption {
	return func(r *ReactRunner) { r.name = name }
}

func WithInstructions(s string) ReactOption {
	return func(r *ReactRunner) { r.instructions = s }
}

func WithModel(model string, temperature float64) ReactOption {
	return func(r *ReactRunner) {
		r.model = model
		r.temperature = llm.Float(temperature)
	}
}

// WithMaxSteps bounds the number of model decisions per run.
func WithMaxSteps(n int) ReactOption {
	return func(r *ReactRunner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// WithLLMTimeout bounds each model call.
func WithLLMTimeout(d time.Duration) ReactOption {
	return func(r *ReactRunner) { r.llmTimeout = d }
}

// ReactRunner implements a bounded ReAct (Reason + Act) loop. Each
// iteration is one model call; tool calls it requests run in parallel and
// their results, errors included, are fed back for the next decision. The
// loop ends when the model stops calling tools or the step bound is hit.
type ReactRunner struct {
	name         string
	provider     llm.Provider
	registry     *Registry
	tools        []llm.ToolDef
	instructions string
	model        string
	temperature  *float64
	maxSteps     int
	llmTimeout   time.Duration
}

func NewReactRunner(provider llm.Provider, registry *Registry, opts ...ReactOption) *ReactRunner {
	r := &ReactRunner{
		name:     "agent",
		provider: provider,
		registry: registry,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tools = registry.Definitions()
	return r
}

func (r *ReactRunner) Run(ctx context.Context, messages []llm.Message) (*RunResult, error) {
	ctx, span := trace.Tracer().Start(ctx, "agent."+r.name+".run",
		oteltrace.WithAttributes(
			attribute.String("gen_ai.agent.name", r.name),
			attribute.String("request.id", RequestIDFromContext(ctx)),
			attribute.Int("agent.max_steps", r.maxSteps),
		),
	)
	defer span.End()

	res, err := r.loop(ctx, append([]llm.Message(nil), messages...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("agent.steps", res.Steps),
		attribute.Bool("agent.exhausted", res.Exhausted),
	)
	return res, nil
}

func (r *ReactRunner) loop(ctx context.Context, messages []llm.Message) (*RunResult, error) {
	res := &RunResult{}
	used := make(map[string]bool)
	var lastText, lastObservation string

	for res.Steps < r.maxSteps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.decide(ctx, messages, res.Steps)
		if err != nil {
			return nil, err
		}
		res.Steps++
		if resp.Text != "" {
			lastText = resp.Text
		}

		if len(resp.ToolCalls) == 0 {
			res.Text = resp.Text
			return res, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		for i, out := range r.act(ctx, resp.ToolCalls) {
			call := resp.ToolCalls[i]
			if out.resolved && !used[call.Name] {
				used[call.Name] = true
				res.ToolsUsed = append(res.ToolsUsed, call.Name)
			}
			if !out.failed && out.content != "" {
				lastObservation = out.content
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    out.content,
			})
		}
	}

	slog.Warn("agent step limit reached", "agent", r.name, "steps", res.Steps, "request_id", RequestIDFromContext(ctx))
	// Tool output first; the model's text only when no tool succeeded.
	res.Exhausted = true
	res.Text = lastObservation
	if res.Text == "" {
		res.Text = lastText
	}
	return res, nil
}

func (r *ReactRunner) decide(ctx context.Context, messages []llm.Message, step int) (*llm.Response, error) {
	if r.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.llmTimeout)
		defer cancel()
	}

	ctx, span := trace.Tracer().Start(ctx, "llm.call",
		oteltrace.WithAttributes(
			attribute.String("gen_ai.agent.name", r.name),
			attribute.Int("llm.iteration", step),
		),
	)
	defer span.End()

	resp, err := r.provider.Chat(ctx, llm.Request{
		Model:        r.model,
		Temperature:  r.temperature,
		Instructions: r.instructions,
		Messages:     messages,
		Tools:        r.tools,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int64("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int64("llm.output_tokens", resp.Usage.OutputTokens),
		attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
	)
	return resp, nil
}

type observation struct {
	content  string
	failed   bool
	resolved bool
}

// act executes tool calls in parallel and returns one observation per call,
// in call order. Failures become "error: ..." observations.
func (r *ReactRunner) act(ctx context.Context, calls []llm.ToolCall) []observation {
	emit := EmitFromContext(ctx)
	for _, call := range calls {
		emit(Event{Type: EventToolCall, Data: map[string]string{
			"agent":     r.name,
			"name":      call.Name,
			"arguments": call.Arguments,
		}})
	}

	var wg sync.WaitGroup
	results := make([]observation, len(calls))

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()

			tool, ok := r.registry.Get(call.Name)
			if !ok {
				slog.Warn("unknown tool call", "agent", r.name, "tool", call.Name)
				results[i] = observation{content: "error: unknown tool " + call.Name, failed: true}
			} else if out, err := withTrace(tool, r.name).Execute(ctx, call.Arguments); err != nil {
				slog.Warn("tool execution failed", "agent", r.name, "tool", call.Name, "error", err)
				results[i] = observation{content: "error: " + err.Error(), failed: true, resolved: true}
			} else {
				results[i] = observation{content: out, resolved: true}
			}

			emit(Event{Type: EventToolResult, Data: map[string]string{
				"agent":   r.name,
				"name":    call.Name,
				"content": results[i].content,
			}})
		}(i, call)
	}

	wg.Wait()
	return results
}
