package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/logger"
	"github.com/contactbook/contactbook/internal/metrics"
)

type contextKey string

const callerContextKey contextKey = "caller"

const bearerPrefix = "Bearer "

// CallerIdentity is the authenticated user of a request, resolved once by
// the gate.
type CallerIdentity struct {
	UserID string
	Email  string
}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, caller *CallerIdentity) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns the caller stored by the gate, or nil.
func CallerFromContext(ctx context.Context) *CallerIdentity {
	caller, ok := ctx.Value(callerContextKey).(*CallerIdentity)
	if !ok {
		return nil
	}
	return caller
}

// extractToken reads the bearer token from the Authorization header, or
// from the token query parameter when the header is absent.
func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		token := r.URL.Query().Get("token")
		return token, token != ""
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Gate rejects requests without a valid bearer token for an existing user
// with 403, and stores the CallerIdentity in the context otherwise.
func Gate(tokens *TokenService, users UserStore, m *metrics.Metrics, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.WithComponent("auth_gate")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(reason string, err error) {
				m.RecordGateRejection()
				fields := []zap.Field{zap.String("reason", reason)}
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				log.Warn(ctx, "access forbidden", fields...)
				apperrors.WriteError(w, apperrors.GetRequestID(ctx),
					apperrors.Forbidden("Token not provided or invalid", "Access Forbidden"))
			}

			token, ok := extractToken(r)
			if !ok {
				reject("missing token", nil)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				reject("invalid token", err)
				return
			}

			user, err := users.GetByEmail(ctx, claims.Email)
			if err != nil {
				reject("unknown user", err)
				return
			}

			ctx = WithCaller(ctx, &CallerIdentity{UserID: user.ID, Email: user.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
