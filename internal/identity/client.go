// Package identity resolves bearer tokens to platform users against an
// external auth service. The service owns signup and login; this package
// only verifies tokens and extracts the user's identity.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
)

// Client is the REST client for the auth service's user-info endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new auth service client.
//
// baseURL is the auth service root, e.g. "https://auth.example.com".
// apiKey is the service-level key sent alongside every request.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// userInfo is the wire shape of the auth service's user-info response.
type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Resolve verifies the bearer token and returns the identity it belongs to.
// Invalid or expired tokens yield domain.ErrUnauthorized.
func (c *Client) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Identity{}, domain.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return domain.Identity{}, fmt.Errorf("identity: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return domain.Identity{}, fmt.Errorf("identity: decode response: %w", err)
	}
	if info.ID == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	return domain.Identity{UserID: info.ID, Username: info.Email}, nil
}

// Compile-time interface check.
var _ domain.IdentityProvider = (*Client)(nil)
