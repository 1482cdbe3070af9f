package errors

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// maxRequestIDLen bounds ids accepted from upstream proxies.
const maxRequestIDLen = 64

// GenerateRequestID returns a fresh random request id.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ResolveRequestID keeps an upstream id when it is a short token of
// letters, digits, '-', '_' or '.', and generates a new one otherwise.
func ResolveRequestID(upstream string) string {
	if validRequestID(upstream) {
		return upstream
	}
	return GenerateRequestID()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
