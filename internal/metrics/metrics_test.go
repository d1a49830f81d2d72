package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusExposition(t *testing.T) {
	rec, handler, err := NewPrometheus()
	require.NoError(t, err)

	ctx := context.Background()
	rec.RecordRequest(ctx, "success", 120*time.Millisecond)
	rec.RecordAgentCall(ctx, "IT_Agent", time.Second, nil)
	rec.ObserveTool(ctx, "web_search", 50*time.Millisecond, errors.New("boom"))
	rec.RecordReload(ctx, "rejected")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "agentplatform_requests_total")
	assert.Contains(t, body, `agent="IT_Agent"`)
	assert.Contains(t, body, `tool="web_search"`)
	assert.Contains(t, body, `outcome="error"`)
	assert.Contains(t, body, `outcome="rejected"`)
	assert.Contains(t, body, "agentplatform_tool_duration_seconds")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.RecordRequest(context.Background(), "success", time.Second)
		rec.RecordAgentCall(context.Background(), "a", time.Second, nil)
		rec.ObserveTool(context.Background(), "t", time.Second, nil)
		rec.RecordReload(context.Background(), "applied")
	})
}
