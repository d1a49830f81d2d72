package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"agentplatform/internal/agent"
	"agentplatform/internal/config"
	"agentplatform/internal/llm"
	"agentplatform/internal/tools"
)

// Resolver looks up catalog entries by tool id.
type Resolver interface {
	Resolve(id string) (*tools.Entry, error)
}

// Recorder receives agent, tool and request measurements.
type Recorder interface {
	tools.Observer
	RecordAgentCall(ctx context.Context, agent string, elapsed time.Duration, err error)
	RecordRequest(ctx context.Context, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTool(context.Context, string, time.Duration, error)      {}
func (nopRecorder) RecordAgentCall(context.Context, string, time.Duration, error) {}
func (nopRecorder) RecordRequest(context.Context, string, time.Duration)          {}

// Limits are the per-agent defaults applied while compiling.
type Limits struct {
	MaxSteps     int
	LLMTimeout   time.Duration
	ToolTimeout  time.Duration
	AgentTimeout time.Duration
	// DefaultModel is used when a definition names no model; empty means
	// the provider's own default.
	DefaultModel string
}

// buildConcurrency caps parallel compilation.
const buildConcurrency = 8

// Factory compiles agent definitions into SubAgents. It only reads the
// catalog, so one Factory can serve every reload.
type Factory struct {
	catalog  Resolver
	provider llm.Provider
	limits   Limits
	recorder Recorder
}

type FactoryOption func(*Factory)

func WithRecorder(r Recorder) FactoryOption {
	return func(f *Factory) {
		if r != nil {
			f.recorder = r
		}
	}
}

func NewFactory(catalog Resolver, provider llm.Provider, limits Limits, opts ...FactoryOption) *Factory {
	if limits.MaxSteps <= 0 {
		limits.MaxSteps = agent.DefaultMaxSteps
	}
	f := &Factory{
		catalog:  catalog,
		provider: provider,
		limits:   limits,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build compiles one definition. Any tool id that does not resolve, or
// cannot be bound, fails the whole agent.
func (f *Factory) Build(def config.AgentDefinition) (*SubAgent, error) {
	registry := agent.NewRegistry()
	var toolIDs []string

	for _, id := range def.Tools {
		if _, dup := registry.Get(id); dup {
			continue
		}
		entry, err := f.catalog.Resolve(id)
		if err != nil {
			return nil, &BuildError{Agent: def.Name, Err: err}
		}
		inst, err := tools.Instantiate(def.Name, entry, def.ToolConfigs[id],
			tools.WithTimeout(f.limits.ToolTimeout),
			tools.WithObserver(f.recorder),
		)
		if err != nil {
			return nil, &BuildError{Agent: def.Name, Err: err}
		}
		registry.Register(inst)
		toolIDs = append(toolIDs, id)
	}

	for id := range def.ToolConfigs {
		if _, ok := registry.Get(id); !ok {
			slog.Warn("tool_configs entry for unlisted tool ignored", "agent", def.Name, "tool", id)
		}
	}

	maxSteps := def.MaxSteps
	if maxSteps <= 0 {
		maxSteps = f.limits.MaxSteps
	}
	model := def.LLM.Model
	if model == "" {
		model = f.limits.DefaultModel
	}

	runner := agent.NewReactRunner(f.provider, registry,
		agent.WithName(def.Name),
		agent.WithInstructions(agentInstructions(def, toolIDs)),
		agent.WithModel(model, def.LLM.EffectiveTemperature()),
		agent.WithMaxSteps(maxSteps),
		agent.WithLLMTimeout(f.limits.LLMTimeout),
	)

	return &SubAgent{
		def:      def,
		runner:   runner,
		tools:    toolIDs,
		model:    model,
		maxSteps: maxSteps,
		timeout:  f.limits.AgentTimeout,
		recorder: f.recorder,
	}, nil
}

// BuildAll compiles every definition concurrently. The returned Set keeps
// definition order and holds only the agents that compiled; each failure is
// reported as a *BuildError.
func (f *Factory) BuildAll(ctx context.Context, defs []config.AgentDefinition) (*Set, []error) {
	built := make([]*SubAgent, len(defs))
	errs := make([]error, len(defs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(buildConcurrency)
	for i, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &BuildError{Agent: def.Name, Err: err}
				return nil
			}
			sa, err := f.Build(def)
			if err != nil {
				slog.Warn("agent build failed", "agent", def.Name, "error", err)
				errs[i] = err
				return nil
			}
			slog.Info("agent compiled", "agent", def.Name, "tools", sa.tools, "max_steps", sa.maxSteps)
			built[i] = sa
			return nil
		})
	}
	_ = g.Wait()

	var agents []*SubAgent
	var failures []error
	for i := range defs {
		if built[i] != nil {
			agents = append(agents, built[i])
		}
		if errs[i] != nil {
			failures = append(failures, errs[i])
		}
	}
	return newSet(agents), failures
}
