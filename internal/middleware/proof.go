package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/splitlite/splitlite/internal/verify"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// proofEmailKey is the context key for the verified email on the request.
const proofEmailKey contextKey = "proof_email"

// ProofEmail extracts the verified email from the context.
// Returns empty string if the request carried no valid proof token.
func ProofEmail(ctx context.Context) string {
	email, _ := ctx.Value(proofEmailKey).(string)
	return email
}

// WithProof validates a Bearer proof token when present and stores the
// verified email on the request context. Requests without a token pass
// through unchanged; handlers that need proof check ProofEmail themselves,
// since only the destructive operations require it.
func WithProof(tokens *verify.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					if claims, err := tokens.Validate(parts[1]); err == nil {
						ctx := context.WithValue(r.Context(), proofEmailKey, claims.Email)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
