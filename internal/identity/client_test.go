package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahminpazari/marketd/internal/domain"
)

func TestResolveValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "svc-key", r.Header.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user-1","email":"alice@example.com"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "svc-key")

	id, err := c.Resolve(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "alice@example.com", id.Username)
}

func TestResolveRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	_, err := c.Resolve(context.Background(), "expired")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolveEmptyToken(t *testing.T) {
	c := NewClient("http://auth.invalid", "")

	_, err := c.Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	_, err := c.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}
