package ports

import (
	"context"
	"time"

	"github.com/layer-3/recipebook/core"
)

// CredentialStore persists the client's access and refresh credentials
type CredentialStore interface {
	Load(ctx context.Context) (core.Credentials, error)
	Save(ctx context.Context, creds core.Credentials) error
	Clear(ctx context.Context) error
}

// TokenStore interface for refresh token invalidation
type TokenStore interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
