package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/httputil"
)

// SessionVerifier validates a session ("user") token and returns the identity
// id it asserts.
type SessionVerifier interface {
	VerifyUser(token string) (int64, error)
}

type contextKeyIdentityID struct{}

// GetIdentityID retrieves the authenticated identity id from the context.
// The second return is false outside RequireAuth.
func GetIdentityID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKeyIdentityID{}).(int64)
	return id, ok
}

// RequireAuth rejects requests without a valid session token and stores the
// authenticated identity id in the request context. Every verification
// failure is answered uniformly as unauthenticated.
func RequireAuth(verifier SessionVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "You must provide a token"))
				return
			}

			identityID, err := verifier.VerifyUser(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid token"))
				return
			}

			ctx = context.WithValue(ctx, contextKeyIdentityID{}, identityID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
