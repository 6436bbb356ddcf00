package llm

import (
	"context"
	"errors"
	"log/slog"
)

// ErrExhausted is returned when every configured backend has been tried
// and failed, or none are available.
var ErrExhausted = errors.New("all generation backends failed or none are configured")

// DefaultMaxTokens is applied when neither the call nor the backend
// defaults specify a max output token count.
const DefaultMaxTokens = 250

// Router tries configured backends in preference order until one
// produces a result. A backend named in the order but never registered
// (e.g. missing credentials) is skipped, not treated as a failure.
type Router struct {
	order            []string
	backends         map[string]Backend
	defaults         map[string]Params
	defaultMaxTokens int
}

// NewRouter creates a router with the given backend preference order.
// defaultMaxTokens caps output when a call leaves MaxTokens unset;
// pass 0 to use DefaultMaxTokens.
func NewRouter(order []string, defaultMaxTokens int) *Router {
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = DefaultMaxTokens
	}
	return &Router{
		order:            append([]string(nil), order...),
		backends:         make(map[string]Backend),
		defaults:         make(map[string]Params),
		defaultMaxTokens: defaultMaxTokens,
	}
}

// Register makes a backend available under its own name, with per-backend
// default parameters merged into every call that routes to it.
func (r *Router) Register(b Backend, defaults Params) {
	r.backends[b.Name()] = b
	r.defaults[b.Name()] = defaults
}

// attemptOrder returns the configured order with preferred moved to the
// front, or prepended if it was not listed.
func (r *Router) attemptOrder(preferred string) []string {
	if preferred == "" {
		return r.order
	}
	out := make([]string, 0, len(r.order)+1)
	out = append(out, preferred)
	for _, name := range r.order {
		if name != preferred {
			out = append(out, name)
		}
	}
	return out
}

// mergeParams overlays call parameters onto backend defaults; call values
// win field by field, and the router-wide max token default fills the gap.
func (r *Router) mergeParams(name string, call Params) Params {
	merged := r.defaults[name]
	if call.Model != "" {
		merged.Model = call.Model
	}
	if call.MaxTokens > 0 {
		merged.MaxTokens = call.MaxTokens
	}
	if call.Temperature != 0 {
		merged.Temperature = call.Temperature
	}
	if len(call.Media) > 0 {
		merged.Media = call.Media
	}
	if merged.MaxTokens <= 0 {
		merged.MaxTokens = r.defaultMaxTokens
	}
	return merged
}

// Generate tries each backend in order and returns the first successful
// text result. Backend errors are logged and swallowed; ErrExhausted is
// returned only when every available backend has been tried.
func (r *Router) Generate(ctx context.Context, preferred string, req *Request) (string, error) {
	for _, name := range r.attemptOrder(preferred) {
		backend, ok := r.backends[name]
		if !ok {
			slog.Debug("backend not configured, skipping", "backend", name)
			continue
		}
		attempt := *req
		attempt.Params = r.mergeParams(name, req.Params)
		text, err := backend.Invoke(ctx, &attempt)
		if err != nil {
			slog.Warn("backend invocation failed", "backend", name, "error", err)
			continue
		}
		slog.Info("generated text", "backend", name, "model", attempt.Params.Model)
		return text, nil
	}
	return "", ErrExhausted
}

// GenerateStructured is Generate for schema-constrained JSON output.
func (r *Router) GenerateStructured(ctx context.Context, preferred string, req *Request, schema Schema) (map[string]any, error) {
	for _, name := range r.attemptOrder(preferred) {
		backend, ok := r.backends[name]
		if !ok {
			slog.Debug("backend not configured, skipping", "backend", name)
			continue
		}
		attempt := *req
		attempt.Params = r.mergeParams(name, req.Params)
		data, err := backend.InvokeStructured(ctx, &attempt, schema)
		if err != nil {
			slog.Warn("structured backend invocation failed", "backend", name, "error", err)
			continue
		}
		slog.Info("generated structured result", "backend", name, "model", attempt.Params.Model)
		return data, nil
	}
	return nil, ErrExhausted
}
