package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahminpazari/marketd/internal/domain"
)

type fakeProvider struct {
	id  domain.Identity
	err error
}

func (f *fakeProvider) Resolve(_ context.Context, _ string) (domain.Identity, error) {
	return f.id, f.err
}

func noopHandler(sawIdentity *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); ok && sawIdentity != nil {
			*sawIdentity = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityAttachesResolvedUser(t *testing.T) {
	provider := &fakeProvider{id: domain.Identity{UserID: "u1", Username: "alice@example.com"}}
	var saw bool
	h := Identity(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))(noopHandler(&saw))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, saw)
}

func TestIdentityAnonymousPassesThrough(t *testing.T) {
	var saw bool
	h := Identity(&fakeProvider{}, slog.New(slog.NewTextHandler(io.Discard, nil)))(noopHandler(&saw))

	req := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, saw)
}

func TestIdentityRejectsBadToken(t *testing.T) {
	provider := &fakeProvider{err: domain.ErrUnauthorized}
	h := Identity(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))(noopHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	h := AdminAuth("s3cret")(noopHandler(nil))

	// Missing token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token.
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil)
	req.Header.Set("X-Admin-Token", "guess")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Correct token, either header form.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
