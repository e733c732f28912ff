package dispatch

import "context"

type cycleIDKey struct{}

// WithCycleID returns a context carrying the loop cycle id, which ends up
// in log lines and the dispatch journal.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey{}, id)
}

// CycleIDFrom returns the cycle id stored in ctx, or "".
func CycleIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(cycleIDKey{}).(string) //nolint:errcheck // type assertion, not an error
	return id
}
