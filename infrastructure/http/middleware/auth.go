package middleware

import (
	"cryptochat/auth"
	"cryptochat/infrastructure/http/respond"
	"log/slog"
	"net/http"
	"strings"
)

// Authenticate rejects requests without a valid bearer token and stores the
// token claims in the request context.
func Authenticate(tokens *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				respond.Error(w, log, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.Validate(strings.TrimSpace(token))
			if err != nil {
				respond.Error(w, log, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
