package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
)

const minPasswordLength = 8

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.TokenStore
	repo      *Repository
	eventPub  ports.EventPublisher
	logger    *slog.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service. eventPub may be nil.
func NewAuthService(
	tokenizer ports.Tokenizer,
	store ports.TokenStore,
	repo *Repository,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		tokenizer:  tokenizer,
		store:      store,
		repo:       repo,
		eventPub:   eventPub,
		logger:     logger,
		accessTTL:  5 * time.Minute,
		refreshTTL: 5 * 24 * time.Hour, // 5 days
		now:        time.Now,
	}
}

// WithTTL overrides the access and refresh lifetimes
func (s *AuthService) WithTTL(access, refresh time.Duration) *AuthService {
	if access > 0 {
		s.accessTTL = access
	}
	if refresh > 0 {
		s.refreshTTL = refresh
	}
	return s
}

// Register creates a user account
func (s *AuthService) Register(ctx context.Context, username, password1, password2 string) (*core.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password1) < minPasswordLength || password1 != password2 {
		return nil, core.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity, err := s.repo.CreateUser(username, hash)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "username", username)
	return identity, nil
}

// Login checks the password and opens a new session
func (s *AuthService) Login(ctx context.Context, username, password string) (core.Credentials, *core.Identity, error) {
	u, err := s.repo.user(username)
	if err != nil {
		return core.Credentials{}, nil, core.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return core.Credentials{}, nil, core.ErrInvalidCredentials
	}

	creds, err := s.issue(username)
	if err != nil {
		return core.Credentials{}, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "username", username)
	return creds, identityOf(u), nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (core.Credentials, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return core.Credentials{}, err
	}

	if s.now().After(session.RefreshExpiry) {
		return core.Credentials{}, core.ErrTokenExpired
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return core.Credentials{}, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return core.Credentials{}, core.ErrTokenInvalidated
	}

	// The account may have been deleted since the token was issued
	if _, err := s.repo.user(session.Username); err != nil {
		return core.Credentials{}, core.ErrTokenInvalidated
	}

	remaining := session.RefreshExpiry.Sub(s.now())
	if err := s.store.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return core.Credentials{}, fmt.Errorf("failed to invalidate old token: %w", err)
	}

	return s.issue(session.Username)
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if errors.Is(err, core.ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return err
	}

	remaining := session.RefreshExpiry.Sub(s.now())
	if remaining <= 0 {
		remaining = time.Hour
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishSessionEnded(ctx, session.Username, core.SessionEndSignedOut); err != nil {
			// The token is already invalidated
			s.logger.WarnContext(ctx, "failed to publish logout event", "error", err)
		}
	}

	return nil
}

// ValidateAccessToken returns the session behind a valid access token
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, err
	}

	if s.now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

func (s *AuthService) issue(username string) (core.Credentials, error) {
	now := s.now()
	session := &core.Session{
		ID:            uuid.NewString(),
		Username:      username,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.NewString(),
	}

	access, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return core.Credentials{}, fmt.Errorf("failed to create access token: %w", err)
	}

	refresh, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return core.Credentials{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return core.Credentials{Access: access, Refresh: refresh}, nil
}
