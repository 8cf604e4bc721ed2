package llm

import "context"

type ctxKeyPhase struct{}

// WithPhase tags ctx with the workflow phase issuing the call, for logs.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPhase{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
