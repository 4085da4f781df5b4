package guard

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	nodeKey
)

// WithRunID attaches the run identifier stamped on audit records.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithNode attaches the name of the node performing calls.
func WithNode(ctx context.Context, node string) context.Context {
	return context.WithValue(ctx, nodeKey, node)
}

// RunIDFrom returns the run identifier attached to ctx, if any.
func RunIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}

// NodeFrom returns the node name attached to ctx, if any.
func NodeFrom(ctx context.Context) string {
	v, _ := ctx.Value(nodeKey).(string)
	return v
}
