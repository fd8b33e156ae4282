package ports

import (
	"context"

	"github.com/layer-3/recipebook/core"
)

// Refresher exchanges a refresh credential for new credentials. An empty
// Refresh in the result means the old refresh credential stays valid.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (core.Credentials, error)
}

// Authenticator talks to the unauthenticated auth endpoints
type Authenticator interface {
	Refresher
	Login(ctx context.Context, username, password string) (core.Credentials, *core.Identity, error)
	Register(ctx context.Context, username, password string) error
	Logout(ctx context.Context, creds core.Credentials) error
}

// IdentityFetcher resolves the signed-in user
type IdentityFetcher interface {
	CurrentUser(ctx context.Context) (*core.Identity, error)
}
