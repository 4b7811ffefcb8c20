package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/notorious-utopia/egrn/internal/platform/secrets"
	id "github.com/notorious-utopia/egrn/pkg/domain"
	"github.com/notorious-utopia/egrn/pkg/requestcontext"
)

// JWTClaims are the claims the auth middleware needs from a validated
// token.
type JWTClaims struct {
	UserID   string
	Username string
}

// JWTValidator validates a bearer token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// RequireAuth rejects requests without a valid bearer token and
// resolves the caller's identity into the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized: missing bearer token",
					slog.String("request_id", requestcontext.RequestID(ctx)))
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized: invalid token",
					slog.String("error", err.Error()),
					slog.String("request_id", requestcontext.RequestID(ctx)))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithUsername(ctx, claims.Username)
			if userID, err := id.ParseUserID(claims.UserID); err == nil {
				ctx = requestcontext.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOperatorKey guards operational endpoints with a pre-shared key
// verified against its bcrypt hash.
func RequireOperatorKey(keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := r.Header.Get("X-Operator-Key")
			if keyHash == "" || key == "" || !secrets.Verify(key, keyHash) {
				logger.WarnContext(ctx, "forbidden: operator key rejected",
					slog.String("path", r.URL.Path),
					slog.String("request_id", requestcontext.RequestID(ctx)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
