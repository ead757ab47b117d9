package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID stores a correlation identifier in the context so that
// downstream logging and messaging carry the same request identity.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation identifier stored in the context,
// or an empty string when none was set.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return ""
}
