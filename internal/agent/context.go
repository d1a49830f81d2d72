package agent

import (
	"context"
	"sync"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	emitKey
)

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithEmit installs an event sink. Calls are serialized, so emit
// itself need not be safe for concurrent use.
func ContextWithEmit(ctx context.Context, emit func(Event)) context.Context {
	var mu sync.Mutex
	locked := func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		emit(e)
	}
	return context.WithValue(ctx, emitKey, locked)
}

// EmitFromContext returns the installed sink, or a no-op.
func EmitFromContext(ctx context.Context) func(Event) {
	if v, ok := ctx.Value(emitKey).(func(Event)); ok {
		return v
	}
	return func(Event) {}
}
