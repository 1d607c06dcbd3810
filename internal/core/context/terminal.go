package context

import "context"

type terminalKey struct{}

// WithTerminal stores the identifier of the operator terminal that issued the request.
// Several weighing stations share one server; the terminal is recorded in the audit trail.
func WithTerminal(ctx context.Context, terminal string) context.Context {
	return context.WithValue(ctx, terminalKey{}, terminal)
}

// GetTerminal returns the terminal identifier or empty string.
func GetTerminal(ctx context.Context) string {
	if v, ok := ctx.Value(terminalKey{}).(string); ok {
		return v
	}
	return ""
}
