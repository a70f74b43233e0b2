package correlationid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header and message header that carries the correlation id.
const Header = "X-Correlation-ID"

type contextKey struct{}

// NewContext returns a context carrying the given correlation id.
func NewContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, contextKey{}, correlationID)
}

// FromContext returns the correlation id stored in the context, if any.
func FromContext(ctx context.Context) (string, bool) {
	correlationID, ok := ctx.Value(contextKey{}).(string)
	return correlationID, ok
}

// Generate returns a new random correlation id.
func Generate() string {
	return uuid.NewString()
}
