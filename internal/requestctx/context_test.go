package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientID(ctx))

	ctx = SetClientID(ctx, "203.0.113.7")
	assert.Equal(t, "203.0.113.7", ClientID(ctx))
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	ctx = SetCorrelationID(ctx, "req_123")
	assert.Equal(t, "req_123", CorrelationID(ctx))
}

func TestKeysDoNotCollide(t *testing.T) {
	ctx := SetClientID(context.Background(), "203.0.113.7")
	ctx = SetCorrelationID(ctx, "req_123")

	assert.Equal(t, "203.0.113.7", ClientID(ctx))
	assert.Equal(t, "req_123", CorrelationID(ctx))
}
