package store

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStore is a Redis implementation of the TokenStore interface
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a new Redis token store
func NewRedisTokenStore(client *redis.Client) ports.TokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: "recipebook:invalidated:",
	}
}

// InvalidateToken marks a token as invalidated in Redis
func (s *RedisTokenStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.prefix + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisTokenStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}

	return val > 0, nil
}

const (
	fieldAccess  = "access"
	fieldRefresh = "refresh"
)

// RedisCredentialStore keeps client credentials in a Redis hash so several
// client processes can share one session
type RedisCredentialStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCredentialStore creates a credential store under the given session
// name. A zero ttl keeps the hash until it is cleared.
func NewRedisCredentialStore(client *redis.Client, name string, ttl time.Duration) *RedisCredentialStore {
	return &RedisCredentialStore{
		client: client,
		key:    "recipebook:session:" + name,
		ttl:    ttl,
	}
}

func (s *RedisCredentialStore) Load(ctx context.Context) (core.Credentials, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return core.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	return core.Credentials{
		Access:  values[fieldAccess],
		Refresh: values[fieldRefresh],
	}, nil
}

func (s *RedisCredentialStore) Save(ctx context.Context, creds core.Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, fieldAccess, creds.Access, fieldRefresh, creds.Refresh)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	return nil
}
