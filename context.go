package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/apiclient"
)

// WithRequestID attaches a correlation ID to ctx. Identity Service and
// Resource API calls send it as X-Request-ID and audit events record it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return apiclient.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	return apiclient.RequestIDFromContext(ctx)
}
