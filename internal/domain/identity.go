package domain

import "context"

// Identity is a resolved user identity from the external provider.
type Identity struct {
	UserID   string
	Username string
}

// IdentityProvider resolves a bearer token to an identity. It returns
// ErrUnauthorized when the token does not map to a user.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}
