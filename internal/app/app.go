// Package app wires configuration into a running agent system. It is shared
// by the agentd subcommands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"agentplatform/internal/config"
	"agentplatform/internal/db"
	"agentplatform/internal/llm"
	"agentplatform/internal/logger"
	"agentplatform/internal/metrics"
	"agentplatform/internal/orchestrator"
	"agentplatform/internal/reload"
	"agentplatform/internal/trace"
	"agentplatform/internal/tools"
)

const serviceName = "agentd"

// LoadConfig reads the file named by the --config flag and applies its
// logging settings.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

type App struct {
	Config         *config.Config
	Catalog        *tools.Catalog
	Provider       llm.Provider
	Manager        *reload.Manager
	Metrics        *metrics.Recorder
	MetricsHandler http.Handler
	Knowledge      *db.DB

	closers []func(context.Context) error
}

// New builds every component except the agents themselves; call
// Manager.Reload to compile and publish them.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	shutdown, err := trace.Init(ctx, cfg.Tracing, serviceName)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	a.Metrics, a.MetricsHandler, err = metrics.NewPrometheus()
	if err != nil {
		return nil, err
	}

	if cfg.Knowledge.Path != "" {
		a.Knowledge, err = OpenKnowledge(cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return a.Knowledge.Close() })
	}

	a.Catalog, err = NewCatalog(cfg, a.Knowledge)
	if err != nil {
		return nil, err
	}

	a.Provider, err = NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	llmCfg, _ := cfg.LLM()
	o := cfg.Orchestrator
	factory := orchestrator.NewFactory(a.Catalog, a.Provider, orchestrator.Limits{
		MaxSteps:     o.MaxSteps,
		LLMTimeout:   o.LLMTimeout.Duration,
		ToolTimeout:  o.ToolTimeout.Duration,
		AgentTimeout: o.AgentTimeout.Duration,
		DefaultModel: llmCfg.Model,
	}, orchestrator.WithRecorder(a.Metrics))

	a.Manager = reload.NewManager(
		config.DefinitionFile{Path: o.AgentsFile},
		factory,
		a.Provider,
		orchestrator.MasterOptions{
			Model:         o.MasterModel,
			Temperature:   llm.Float(o.MasterTemperature),
			MaxAgentCalls: o.MaxAgentCalls,
			LLMTimeout:    o.LLMTimeout.Duration,
			Recorder:      a.Metrics,
		},
		reload.WithRecorder(a.Metrics),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenKnowledge opens and migrates the knowledge database.
func OpenKnowledge(cfg *config.Config) (*db.DB, error) {
	store, err := db.Open(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate knowledge base: %w", err)
	}
	return store, nil
}

// NewCatalog registers the configured tool catalog, or the built-in one when
// no tools file is set. store may be nil.
func NewCatalog(cfg *config.Config, store *db.DB) (*tools.Catalog, error) {
	var specs []tools.Spec
	if path := cfg.Orchestrator.ToolsFile; path != "" {
		var err error
		if specs, err = tools.LoadSpecs(path); err != nil {
			return nil, err
		}
	}

	b := tools.Builtins{
		HTTPClient: tools.NewHTTPClient(),
		WebClient:  tools.NewPublicHTTPClient(),
	}
	if store != nil {
		b.Knowledge = store
	}
	c, err := tools.NewDefaultCatalog(specs, b)
	if err != nil {
		return nil, fmt.Errorf("build tool catalog: %w", err)
	}
	slog.Debug("tool catalog ready", "tools", c.Len())
	return c, nil
}

// NewProvider returns the default LLM behind a circuit breaker.
func NewProvider(cfg *config.Config) (llm.Provider, error) {
	l, err := cfg.LLM()
	if err != nil {
		return nil, err
	}
	inner := llm.NewOpenAI(l.BaseURL, l.APIKey, l.Model)
	return llm.NewBreaker(cfg.DefaultLLM, inner, llm.BreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.Timeout.Duration,
	}, slog.Default()), nil
}
