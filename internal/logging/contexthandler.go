package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ContextProvider returns attributes evaluated at log time.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}

// Attrs is a concurrency-safe set of attributes that can back a ContextHandler.
type Attrs struct {
	mu    sync.RWMutex
	attrs map[string]slog.Value
	order []string
}

func NewAttrs() *Attrs {
	return &Attrs{attrs: make(map[string]slog.Value)}
}

// Set adds or replaces an attribute.
func (a *Attrs) Set(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.attrs[key]; !ok {
		a.order = append(a.order, key)
	}
	a.attrs[key] = slog.AnyValue(value)
}

// Unset removes an attribute.
func (a *Attrs) Unset(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.attrs[key]; !ok {
		return
	}
	delete(a.attrs, key)
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Provider returns a ContextProvider yielding the current attributes in
// insertion order.
func (a *Attrs) Provider() ContextProvider {
	return func() []slog.Attr {
		a.mu.RLock()
		defer a.mu.RUnlock()
		out := make([]slog.Attr, 0, len(a.order))
		for _, k := range a.order {
			out = append(out, slog.Attr{Key: k, Value: a.attrs[k]})
		}
		return out
	}
}
