package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuth returns middleware that guards operator endpoints with a shared
// secret. The token is read from the X-Admin-Token header or from the
// Authorization bearer header.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := adminToken(r)
			if supplied == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing admin token")
				return
			}

			// Constant-time comparison to prevent timing attacks.
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
				writeAuthError(w, http.StatusForbidden, "invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func adminToken(r *http.Request) string {
	if v := r.Header.Get("X-Admin-Token"); v != "" {
		return strings.TrimSpace(v)
	}
	return bearerToken(r)
}
