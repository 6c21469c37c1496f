package namespace

import "context"

// contextKey is the private type for context values set by this package.
type contextKey int

const namespaceKey contextKey = iota

// WithNamespace returns a new context carrying the namespace token.
func WithNamespace(ctx context.Context, ns string) context.Context {
	return context.WithValue(ctx, namespaceKey, ns)
}

// FromContext retrieves the namespace token from the context.
// Returns empty string if none is present.
func FromContext(ctx context.Context) string {
	ns, _ := ctx.Value(namespaceKey).(string)
	return ns
}
