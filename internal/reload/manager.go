// Package reload keeps the active agent system in sync with its definition
// file. Every reload builds a complete new Master and publishes it with one
// atomic store; requests read the pointer once and keep that Master until
// they finish.
package reload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"agentplatform/internal/config"
	"agentplatform/internal/llm"
	"agentplatform/internal/orchestrator"
)

// Source yields the current agent definitions.
type Source interface {
	Load(ctx context.Context) ([]config.AgentDefinition, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]config.AgentDefinition, error)

func (f SourceFunc) Load(ctx context.Context) ([]config.AgentDefinition, error) { return f(ctx) }

type Recorder interface {
	RecordReload(ctx context.Context, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordReload(context.Context, string) {}

// Reload outcomes reported to the Recorder.
const (
	OutcomeApplied  = "applied"
	OutcomePartial  = "partial"
	OutcomeRejected = "rejected"
)

// Report describes one reload attempt.
type Report struct {
	Agents   []string  `json:"agents"`
	Failures []string  `json:"failures,omitempty"`
	Applied  bool      `json:"applied"`
	At       time.Time `json:"at"`
}

type Manager struct {
	source   Source
	factory  *orchestrator.Factory
	provider llm.Provider
	opts     orchestrator.MasterOptions
	recorder Recorder

	mu     sync.Mutex
	active atomic.Pointer[orchestrator.Master]
	last   atomic.Pointer[Report]
}

type Option func(*Manager)

func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

func NewManager(source Source, factory *orchestrator.Factory, provider llm.Provider, opts orchestrator.MasterOptions, options ...Option) *Manager {
	m := &Manager{
		source:   source,
		factory:  factory,
		provider: provider,
		opts:     opts,
		recorder: nopRecorder{},
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// Reload loads, compiles and publishes a new agent system. On error the
// active system is left untouched; the error is a *config.ConfigError when
// the definitions are unusable. Agents that fail to compile are listed in
// the report without blocking the others.
func (m *Manager) Reload(ctx context.Context) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := &Report{Agents: []string{}, At: time.Now()}
	defer m.last.Store(report)

	defs, err := m.source.Load(ctx)
	if err != nil {
		return report, m.reject(ctx, report, err)
	}

	set, buildErrs := m.factory.BuildAll(ctx, defs)
	for _, e := range buildErrs {
		report.Failures = append(report.Failures, e.Error())
	}

	master, err := orchestrator.NewMaster(set, m.provider, m.opts)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoAgents) {
			err = &config.ConfigError{Source: "agent definitions", Problems: report.Failures, Err: err}
		}
		return report, m.reject(ctx, report, err)
	}

	prev := m.active.Swap(master)
	for _, a := range master.Agents() {
		report.Agents = append(report.Agents, a.Name)
	}
	report.Applied = true

	outcome := OutcomeApplied
	if len(buildErrs) > 0 {
		outcome = OutcomePartial
	}
	m.recorder.RecordReload(ctx, outcome)
	slog.Info("agent system published",
		"agents", report.Agents,
		"failed", len(buildErrs),
		"replaced", prev != nil,
	)
	return report, nil
}

func (m *Manager) reject(ctx context.Context, report *Report, err error) error {
	m.recorder.RecordReload(ctx, OutcomeRejected)
	slog.Error("reload rejected, keeping current agents", "error", err, "active", m.active.Load() != nil)
	if report.Failures == nil {
		report.Failures = []string{err.Error()}
	}
	return fmt.Errorf("reload: %w", err)
}

// Active returns the published Master, or nil before the first successful
// reload.
func (m *Manager) Active() *orchestrator.Master {
	return m.active.Load()
}

// LastReport returns the outcome of the most recent reload attempt.
func (m *Manager) LastReport() *Report {
	return m.last.Load()
}

// Execute serves req on the Master active at call time.
func (m *Manager) Execute(ctx context.Context, req orchestrator.Request) *orchestrator.Result {
	master := m.active.Load()
	if master == nil {
		id := req.RequestID
		if id == "" {
			id = uuid.NewString()
		}
		return orchestrator.Failure(id, orchestrator.CodeNotReady)
	}
	return master.Execute(ctx, req)
}

func (m *Manager) Agents() []orchestrator.AgentInfo {
	master := m.active.Load()
	if master == nil {
		return []orchestrator.AgentInfo{}
	}
	return master.Agents()
}
