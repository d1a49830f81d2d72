package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentplatform/internal/logger"
)

type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Chat(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

func TestBreakerPassesThrough(t *testing.T) {
	inner := providerFunc(func(_ context.Context, req Request) (*Response, error) {
		return &Response{Text: "ok", Model: req.Model}, nil
	})

	b := NewBreaker("test", inner, BreakerConfig{}, logger.Discard())
	resp, err := b.Chat(context.Background(), Request{Model: "m"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "m", resp.Model)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	inner := providerFunc(func(context.Context, Request) (*Response, error) {
		calls++
		return nil, errors.New("provider error")
	})

	b := NewBreaker("flaky", inner, BreakerConfig{MaxFailures: 2, Timeout: time.Minute}, logger.Discard())

	for range 2 {
		_, err := b.Chat(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider error")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Chat(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), `provider "flaky" circuit open`)
	assert.Equal(t, 2, calls)
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	inner := providerFunc(func(context.Context, Request) (*Response, error) {
		return nil, context.Canceled
	})

	b := NewBreaker("cancel", inner, BreakerConfig{MaxFailures: 1}, logger.Discard())
	for range 3 {
		_, err := b.Chat(context.Background(), Request{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
