package service

import (
	"context"
	"errors"
	"testing"

	"github.com/layer-3/recipebook/adapters/store"
	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/internal/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	creds     core.Credentials
	identity  *core.Identity
	loginErr  error
	logoutErr error

	registered []string
	loggedOut  []core.Credentials
}

func (a *fakeAuth) Refresh(ctx context.Context, refreshToken string) (core.Credentials, error) {
	return core.Credentials{}, errors.New("not used")
}

func (a *fakeAuth) Login(ctx context.Context, username, password string) (core.Credentials, *core.Identity, error) {
	if a.loginErr != nil {
		return core.Credentials{}, nil, a.loginErr
	}
	return a.creds, a.identity, nil
}

func (a *fakeAuth) Register(ctx context.Context, username, password string) error {
	a.registered = append(a.registered, username)
	return nil
}

func (a *fakeAuth) Logout(ctx context.Context, creds core.Credentials) error {
	a.loggedOut = append(a.loggedOut, creds)
	return a.logoutErr
}

type fakeUsers struct {
	identity *core.Identity
	err      error
	calls    int
}

func (u *fakeUsers) CurrentUser(ctx context.Context) (*core.Identity, error) {
	u.calls++
	return u.identity, u.err
}

func newSessionService(creds core.Credentials, auth *fakeAuth, users *fakeUsers) (*SessionService, *store.MemoryCredentialStore, *recordingPublisher) {
	st := store.NewMemoryCredentialStore(creds)
	pub := &recordingPublisher{}
	guard := NewGuard(st, auth, WithLogger(slogx.Discard()), WithEventPublisher(pub))
	return NewSessionService(guard, auth, users, pub, slogx.Discard()), st, pub
}

func TestSessionService_Mount(t *testing.T) {
	alice := &core.Identity{ID: 1, Username: "alice", ProfileID: 7}

	t.Run("restores identity", func(t *testing.T) {
		users := &fakeUsers{identity: alice}
		s, _, _ := newSessionService(core.Credentials{Access: "T1", Refresh: "R1"}, &fakeAuth{}, users)

		got := s.Mount(context.Background())
		require.NotNil(t, got)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, alice, s.CurrentUser())
	})

	t.Run("no credentials skips the lookup", func(t *testing.T) {
		users := &fakeUsers{identity: alice}
		s, _, _ := newSessionService(core.Credentials{}, &fakeAuth{}, users)

		assert.Nil(t, s.Mount(context.Background()))
		assert.Zero(t, users.calls)
	})

	t.Run("any error stays logged out", func(t *testing.T) {
		users := &fakeUsers{err: errors.New("503")}
		s, _, _ := newSessionService(core.Credentials{Access: "T1", Refresh: "R1"}, &fakeAuth{}, users)

		assert.Nil(t, s.Mount(context.Background()))
		assert.Nil(t, s.CurrentUser())
	})
}

func TestSessionService_SignIn(t *testing.T) {
	auth := &fakeAuth{
		creds:    core.Credentials{Access: "T1", Refresh: "R1"},
		identity: &core.Identity{ID: 1, Username: "alice", ProfileID: 7},
	}
	s, st, _ := newSessionService(core.Credentials{}, auth, &fakeUsers{})
	ctx := context.Background()

	identity, err := s.SignIn(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, 7, identity.ProfileID)

	creds, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.creds, creds)
	assert.Equal(t, "alice", s.CurrentUser().Username)
}

func TestSessionService_SignInFailure(t *testing.T) {
	auth := &fakeAuth{loginErr: core.ErrInvalidCredentials}
	s, st, _ := newSessionService(core.Credentials{}, auth, &fakeUsers{})

	_, err := s.SignIn(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	creds, _ := st.Load(context.Background())
	assert.True(t, creds.Empty())
	assert.Nil(t, s.CurrentUser())
}

func TestSessionService_SignUp(t *testing.T) {
	auth := &fakeAuth{}
	s, _, _ := newSessionService(core.Credentials{}, auth, &fakeUsers{})

	require.NoError(t, s.SignUp(context.Background(), "bob", "secret"))
	assert.Equal(t, []string{"bob"}, auth.registered)
	assert.Nil(t, s.CurrentUser(), "sign-up does not sign in")
}

func TestSessionService_SignOutClearsRegardless(t *testing.T) {
	auth := &fakeAuth{
		creds:     core.Credentials{Access: "T1", Refresh: "R1"},
		identity:  &core.Identity{Username: "alice"},
		logoutErr: errors.New("server unavailable"),
	}
	s, st, pub := newSessionService(core.Credentials{}, auth, &fakeUsers{})
	ctx := context.Background()

	_, err := s.SignIn(ctx, "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))

	require.Len(t, auth.loggedOut, 1)
	assert.Equal(t, "R1", auth.loggedOut[0].Refresh)
	assert.Nil(t, s.CurrentUser())

	creds, err := st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Empty())

	require.Equal(t, 1, pub.count())
	assert.Equal(t, core.SessionEndSignedOut, pub.events[0])
	assert.Equal(t, "alice", pub.users[0])
}
