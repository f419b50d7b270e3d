package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tahminpazari/marketd/internal/domain"
)

type ctxKey int

const identityKey ctxKey = iota

// IdentityFrom returns the authenticated identity attached to the request
// context, if any.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given identity. Exported for
// handler tests.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Identity returns middleware that resolves the Authorization bearer token
// against the identity provider and attaches the result to the request
// context. Requests without a token pass through anonymously; requests with
// a token that fails to resolve are rejected. Handlers decide whether an
// identity is required.
func Identity(provider domain.IdentityProvider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := provider.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				logger.ErrorContext(r.Context(), "identity resolution failed",
					slog.String("error", err.Error()),
				)
				writeAuthError(w, http.StatusBadGateway, "identity provider unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// writeAuthError sends a JSON error body with the given status.
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
