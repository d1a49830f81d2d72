package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Recorder records orchestration metrics. A nil *Recorder records nothing.
type Recorder struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	agentCalls      metric.Int64Counter
	agentDuration   metric.Float64Histogram
	toolCalls       metric.Int64Counter
	toolDuration    metric.Float64Histogram
	reloads         metric.Int64Counter
}

// NewPrometheus builds a Recorder backed by its own Prometheus registry and
// returns the handler that serves it.
func NewPrometheus() (*Recorder, http.Handler, error) {
	reg := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	rec, err := New(provider.Meter("agentplatform"))
	if err != nil {
		return nil, nil, err
	}
	return rec, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func New(meter metric.Meter) (*Recorder, error) {
	var r Recorder
	var err error

	if r.requests, err = meter.Int64Counter(
		"agentplatform_requests_total",
		metric.WithDescription("Orchestration requests by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}
	if r.requestDuration, err = meter.Float64Histogram(
		"agentplatform_request_duration_seconds",
		metric.WithDescription("Orchestration request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	if r.agentCalls, err = meter.Int64Counter(
		"agentplatform_agent_calls_total",
		metric.WithDescription("Sub-agent invocations by agent and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent calls counter: %w", err)
	}
	if r.agentDuration, err = meter.Float64Histogram(
		"agentplatform_agent_call_duration_seconds",
		metric.WithDescription("Sub-agent invocation duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent duration histogram: %w", err)
	}
	if r.toolCalls, err = meter.Int64Counter(
		"agentplatform_tool_calls_total",
		metric.WithDescription("Tool invocations by tool and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}
	if r.toolDuration, err = meter.Float64Histogram(
		"agentplatform_tool_duration_seconds",
		metric.WithDescription("Tool invocation duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}
	if r.reloads, err = meter.Int64Counter(
		"agentplatform_reloads_total",
		metric.WithDescription("Configuration reloads by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reloads counter: %w", err)
	}
	return &r, nil
}

func (r *Recorder) RecordRequest(ctx context.Context, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	r.requests.Add(ctx, 1, attrs)
	r.requestDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (r *Recorder) RecordAgentCall(ctx context.Context, agent string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("agent", agent),
		attribute.String("outcome", outcome(err)),
	)
	r.agentCalls.Add(ctx, 1, attrs)
	r.agentDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// ObserveTool satisfies tools.Observer.
func (r *Recorder) ObserveTool(ctx context.Context, tool string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome(err)),
	)
	r.toolCalls.Add(ctx, 1, attrs)
	r.toolDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (r *Recorder) RecordReload(ctx context.Context, outcome string) {
	if r == nil {
		return
	}
	r.reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
