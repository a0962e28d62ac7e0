package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"attestry/pkg/domain"
	"attestry/pkg/requestcontext"
)

// TokenClaims is what the middleware needs from a validated bearer token.
type TokenClaims struct {
	// Principal is the authenticated caller's address.
	Principal domain.Principal
	// TokenID is the token's JTI, kept for audit correlation.
	TokenID string
}

// TokenValidator validates a bearer token and extracts its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) domain.Principal {
	return requestcontext.Principal(ctx)
}

// writeJSONError writes a JSON error response with the given status code
// and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated principal in the request context for handlers.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}
			if claims.Principal.IsZero() {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - token carries no principal",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithPrincipal(r.Context(), claims.Principal)
			ctx = requestcontext.WithTokenID(ctx, claims.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
