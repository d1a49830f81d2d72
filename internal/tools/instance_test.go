package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(_ context.Context, params map[string]any) (string, error) {
	b, err := json.Marshal(params)
	return string(b), err
}

func entry(t *testing.T, id string, fn Func) *Entry {
	t.Helper()
	for _, s := range DefaultSpecs() {
		if s.ID == id {
			return &Entry{Spec: s, Func: fn}
		}
	}
	t.Fatalf("no default spec %q", id)
	return nil
}

func schemaProps(t *testing.T, inst *Instance) map[string]any {
	t.Helper()
	schema, ok := inst.InputSchema().(map[string]any)
	require.True(t, ok)
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	return props
}

func TestInstantiateHidesBoundParams(t *testing.T) {
	inst, err := Instantiate("IT_Agent", entry(t, "jira", echo), map[string]any{
		"base_url":  "https://jira.example.com",
		"username":  "bot@example.com",
		"api_token": "tok",
	})
	require.NoError(t, err)

	props := schemaProps(t, inst)
	for _, hidden := range []string{"base_url", "username", "api_token"} {
		assert.NotContains(t, props, hidden)
	}
	assert.Contains(t, props, "action")
	assert.Contains(t, props, "jql")
	assert.Equal(t, []string{"action"}, inst.InputSchema().(map[string]any)["required"])
	assert.Equal(t, []string{"api_token", "base_url", "username"}, inst.BoundParams())

	raw, err := json.Marshal(inst.InputSchema())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok")
	assert.NotContains(t, string(raw), "jira.example.com")
}

func TestInstantiateHiddenDefault(t *testing.T) {
	inst, err := Instantiate("HR_Agent", entry(t, "knowledge_lookup", echo), nil)
	require.NoError(t, err)
	assert.NotContains(t, schemaProps(t, inst), "collection")

	out, err := inst.Execute(context.Background(), `{"query":"leave"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"leave","limit":5,"collection":"default"}`, out)
}

func TestInstantiateMissingCredential(t *testing.T) {
	_, err := Instantiate("IT_Agent", entry(t, "jira", echo), map[string]any{"username": "bot"})

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "jira", missing.Tool)
	assert.Equal(t, "IT_Agent", missing.Agent)
	assert.Equal(t, []string{"api_token", "base_url"}, missing.Params)
}

func TestInstantiateExpandsEnv(t *testing.T) {
	t.Setenv("AP_TEST_BRAVE_KEY", "k-123")
	inst, err := Instantiate("Researcher", entry(t, "web_search", echo), map[string]any{"api_key": "${AP_TEST_BRAVE_KEY}"})
	require.NoError(t, err)

	out, err := inst.Execute(context.Background(), `{"query":"go"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"go","count":5,"api_key":"k-123"}`, out)

	t.Setenv("AP_TEST_BRAVE_KEY", "")
	_, err = Instantiate("Researcher", entry(t, "web_search", echo), map[string]any{"api_key": "${AP_TEST_BRAVE_KEY}"})
	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"api_key"}, missing.Params)
}

func TestInstantiateRejectsUnknownOverride(t *testing.T) {
	_, err := Instantiate("A", entry(t, "current_time", echo), map[string]any{"tz": "UTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no parameter "tz"`)
}

func TestPinnedParamWinsAndIsHidden(t *testing.T) {
	inst, err := Instantiate("Berlin", entry(t, "current_time", echo), map[string]any{"timezone": "Europe/Berlin"})
	require.NoError(t, err)
	assert.NotContains(t, schemaProps(t, inst), "timezone")

	out, err := inst.Execute(context.Background(), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"timezone":"Europe/Berlin"}`, out)

	_, err = inst.Execute(context.Background(), `{"timezone":"UTC"}`)
	assert.Error(t, err)
}

func TestExecuteRejectsBadArguments(t *testing.T) {
	inst, err := Instantiate("HR_Agent", entry(t, "knowledge_lookup", echo), nil)
	require.NoError(t, err)

	cases := map[string]string{
		"hidden key":     `{"query":"x","collection":"secret"}`,
		"missing query":  `{}`,
		"wrong type":     `{"query":42}`,
		"unknown key":    `{"query":"x","verbose":true}`,
		"not an object":  `["x"]`,
		"malformed json": `{"query":`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := inst.Execute(context.Background(), input)
			var invErr *InvocationError
			require.ErrorAs(t, err, &invErr)
			assert.Equal(t, "knowledge_lookup", invErr.Tool)
			assert.Equal(t, "HR_Agent", invErr.Agent)
		})
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	boom := func(context.Context, map[string]any) (string, error) { panic("kaboom") }
	inst, err := Instantiate("A", entry(t, "web_fetch", boom), nil)
	require.NoError(t, err)

	out, err := inst.Execute(context.Background(), `{"url":"https://example.com"}`)
	assert.Empty(t, out)
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, err.Error(), "panic: kaboom")
}

func TestExecuteTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	inst, err := Instantiate("A", entry(t, "web_fetch", slow), nil, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = inst.Execute(context.Background(), `{"url":"https://example.com"}`)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteRateLimit(t *testing.T) {
	e := &Entry{
		Spec: Spec{ID: "limited", Description: "d", RateLimit: 1},
		Func: func(context.Context, map[string]any) (string, error) { return "ok", nil },
	}
	inst, err := Instantiate("A", e, nil, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	out, err := inst.Execute(context.Background(), "{}")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = inst.Execute(context.Background(), "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

type recordingObserver struct {
	mu    sync.Mutex
	tools []string
	errs  []error
}

func (o *recordingObserver) ObserveTool(_ context.Context, tool string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tools = append(o.tools, tool)
	o.errs = append(o.errs, err)
}

func TestExecuteNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	fail := func(context.Context, map[string]any) (string, error) { return "", errors.New("upstream down") }
	inst, err := Instantiate("A", entry(t, "web_fetch", fail), nil, WithObserver(obs))
	require.NoError(t, err)

	_, _ = inst.Execute(context.Background(), `{"url":"https://example.com"}`)
	require.Len(t, obs.tools, 1)
	assert.Equal(t, "web_fetch", obs.tools[0])
	assert.ErrorContains(t, obs.errs[0], "upstream down")
}

func TestInstanceIsConcurrencySafe(t *testing.T) {
	inst, err := Instantiate("A", entry(t, "knowledge_lookup", echo), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inst.Execute(context.Background(), `{"query":"x"}`)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
