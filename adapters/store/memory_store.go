package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
)

// MemoryTokenStore is an in-memory implementation of the TokenStore interface
type MemoryTokenStore struct {
	invalidatedTokens map[string]time.Time
	mu                sync.RWMutex
}

// NewMemoryTokenStore creates a new in-memory token store
func NewMemoryTokenStore() ports.TokenStore {
	return &MemoryTokenStore{
		invalidatedTokens: make(map[string]time.Time),
	}
}

// InvalidateToken marks a token as invalidated until expiry elapses
func (s *MemoryTokenStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(expiry)
	s.invalidatedTokens[tokenID] = expiryTime

	time.AfterFunc(expiry, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if the entry was not extended meanwhile
		if storedExpiry, exists := s.invalidatedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.invalidatedTokens, tokenID)
		}
	})

	return nil
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryTokenStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	if time.Now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}

// MemoryCredentialStore keeps client credentials in process memory.
// Credentials do not survive a restart.
type MemoryCredentialStore struct {
	creds core.Credentials
	mu    sync.RWMutex
}

// NewMemoryCredentialStore creates a store seeded with creds
func NewMemoryCredentialStore(creds core.Credentials) *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: creds}
}

func (s *MemoryCredentialStore) Load(ctx context.Context) (core.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds, nil
}

func (s *MemoryCredentialStore) Save(ctx context.Context, creds core.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
	return nil
}

func (s *MemoryCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = core.Credentials{}
	return nil
}
