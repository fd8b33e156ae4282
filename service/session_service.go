package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
)

// SessionService handles sign-in, sign-up and sign-out on top of a Guard
type SessionService struct {
	guard    *Guard
	auth     ports.Authenticator
	users    ports.IdentityFetcher
	eventPub ports.EventPublisher
	logger   *slog.Logger
}

// NewSessionService creates a new session service. eventPub may be nil.
func NewSessionService(
	guard *Guard,
	auth ports.Authenticator,
	users ports.IdentityFetcher,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		guard:    guard,
		auth:     auth,
		users:    users,
		eventPub: eventPub,
		logger:   logger,
	}
}

// CurrentUser returns the signed-in user, or nil when logged out
func (s *SessionService) CurrentUser() *core.Identity {
	return s.guard.Identity()
}

// Mount restores persisted credentials and resolves the signed-in user. Any
// failure leaves the session logged out.
func (s *SessionService) Mount(ctx context.Context) *core.Identity {
	if err := s.guard.Restore(ctx); err != nil {
		s.logger.Warn("failed to restore session", "error", err)
		return nil
	}
	if s.guard.Credentials().Empty() {
		return nil
	}

	identity, err := s.users.CurrentUser(ctx)
	if err != nil {
		s.logger.Info("not signed in", "error", err)
		return nil
	}

	s.guard.SetIdentity(identity)
	return identity
}

// SignIn exchanges username and password for credentials
func (s *SessionService) SignIn(ctx context.Context, username, password string) (*core.Identity, error) {
	creds, identity, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		identity = &core.Identity{Username: username}
	}

	if err := s.guard.SetSession(ctx, identity, creds); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.logger.Info("signed in", "username", identity.Username)
	return identity, nil
}

// SignUp registers a new account. It does not sign in.
func (s *SessionService) SignUp(ctx context.Context, username, password string) error {
	return s.auth.Register(ctx, username, password)
}

// SignOut invalidates the session on the server and clears local state. The
// local session is cleared even when the server call fails.
func (s *SessionService) SignOut(ctx context.Context) error {
	creds := s.guard.Credentials()
	identity := s.guard.Identity()

	if !creds.Empty() {
		if err := s.auth.Logout(ctx, creds); err != nil {
			s.logger.Warn("server sign-out failed", "error", err)
		}
	}

	var username string
	if identity != nil {
		username = identity.Username
	}

	if err := s.guard.Clear(ctx); err != nil {
		return err
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishSessionEnded(ctx, username, core.SessionEndSignedOut); err != nil {
			s.logger.Error("failed to publish session ended event", "error", err)
		}
	}

	s.logger.Info("signed out", "username", username)
	return nil
}
