// Package requestctx provides request-scoped values (client_id, correlation_id) set by middleware.
package requestctx

import "context"

// Distinct key types: zero-size values of one type would share an address
// and collide as context keys.
type (
	clientIDKey      struct{}
	correlationIDKey struct{}
)

// SetClientID stores the caller's client_id in the context.
func SetClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientID returns the client_id from context, or "" if not set.
func ClientID(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey{}).(string)
	return v
}

// SetCorrelationID stores the per-request correlation id in the context.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation id from context, or "" if not set.
func CorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey{}).(string)
	return v
}
