package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/recipebook/adapters/store"
	"github.com/layer-3/recipebook/config"
	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/devserver"
	"github.com/layer-3/recipebook/internal/slogx"
	"github.com/layer-3/recipebook/service"
	"github.com/layer-3/recipebook/transport/client"
)

type countingRefresher struct {
	*client.AuthClient
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(ctx context.Context, refreshToken string) (core.Credentials, error) {
	r.calls.Add(1)
	return r.AuthClient.Refresh(ctx, refreshToken)
}

type stack struct {
	backend   *devserver.Server
	store     *store.MemoryCredentialStore
	refresher *countingRefresher
	guard     *service.Guard
	auth      *client.AuthClient
	api       *client.APIClient
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := devserver.New(config.Config{SigningKey: "test-signing-key"}, store.NewMemoryTokenStore(), nil, slogx.Discard())
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	auth, err := client.NewAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	s := &stack{
		backend:   backend,
		store:     store.NewMemoryCredentialStore(core.Credentials{}),
		refresher: &countingRefresher{AuthClient: auth},
		auth:      auth,
	}
	s.guard = service.NewGuard(s.store, s.refresher,
		service.WithTransport(srv.Client().Transport),
		service.WithLogger(slogx.Discard()),
	)
	s.api, err = client.NewAPIClient(srv.URL, &http.Client{Transport: s.guard})
	require.NoError(t, err)
	return s
}

func TestGuardedClient_StaleAccessRefreshedOnce(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	require.NoError(t, s.auth.Register(ctx, "alice", "correct-horse"))
	creds, _, err := s.auth.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	// A previous run left an access token the server no longer accepts
	require.NoError(t, s.store.Save(ctx, core.Credentials{Access: "T1", Refresh: creds.Refresh}))
	require.NoError(t, s.guard.Restore(ctx))

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.api.ListRecipes(ctx, client.RecipeQuery{})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), s.refresher.calls.Load())

	persisted, err := s.store.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, creds.Refresh, persisted.Refresh)
	assert.NotEqual(t, "T1", persisted.Access)
	assert.Equal(t, s.guard.Credentials(), persisted)
}

func TestGuardedClient_RevokedRefreshEndsSession(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	require.NoError(t, s.auth.Register(ctx, "alice", "correct-horse"))
	creds, identity, err := s.auth.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, s.guard.SetSession(ctx, identity, creds))

	_, err = s.api.CurrentUser(ctx)
	require.NoError(t, err)

	// Signing out elsewhere revokes both tokens
	require.NoError(t, s.auth.Logout(ctx, creds))

	_, err = s.api.CurrentUser(ctx)
	assert.ErrorIs(t, err, core.ErrRefreshFailed)
	assert.Nil(t, s.guard.Identity())

	persisted, err := s.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.Empty())
}

func TestGuardedClient_SessionFlow(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	sessions := service.NewSessionService(s.guard, s.auth, s.api, nil, slogx.Discard())

	require.NoError(t, sessions.SignUp(ctx, "alice", "correct-horse"))
	identity, err := sessions.SignIn(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)

	recipe, err := s.api.CreateRecipe(ctx, core.RecipeInput{Title: "Pancakes", CookTime: 20})
	require.NoError(t, err)

	_, err = s.api.Like(ctx, recipe.ID)
	require.NoError(t, err)
	_, err = s.api.CreateComment(ctx, recipe.ID, "fluffy")
	require.NoError(t, err)

	comments, err := s.api.ListComments(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, comments.Results, 1)
	assert.Equal(t, "fluffy", comments.Results[0].Content)

	quick, err := s.api.ListRecipes(ctx, client.RecipeQuery{CookTime: core.CookTimeQuick})
	require.NoError(t, err)
	assert.Equal(t, 1, quick.Count)

	long, err := s.api.ListRecipes(ctx, client.RecipeQuery{CookTime: core.CookTimeLong})
	require.NoError(t, err)
	assert.Zero(t, long.Count)

	require.NoError(t, sessions.SignOut(ctx))
	assert.Nil(t, sessions.CurrentUser())

	_, err = s.api.ListRecipes(ctx, client.RecipeQuery{})
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))
}

func TestGuardedClient_ResourceMutations(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	sessions := service.NewSessionService(s.guard, s.auth, s.api, nil, slogx.Discard())

	// bob only needs a profile to be followed
	require.NoError(t, sessions.SignUp(ctx, "bob", "correct-horse"))
	bob, err := sessions.SignIn(ctx, "bob", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, sessions.SignOut(ctx))

	require.NoError(t, sessions.SignUp(ctx, "alice", "correct-horse"))
	alice, err := sessions.SignIn(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	recipe, err := s.api.CreateRecipe(ctx, core.RecipeInput{Title: "Pancakes", CookTime: 20, Difficulty: core.DifficultyEasy})
	require.NoError(t, err)

	updated, err := s.api.UpdateRecipe(ctx, recipe.ID, core.RecipeInput{Title: "Crepes", CookTime: 70, Difficulty: core.DifficultyHard})
	require.NoError(t, err)
	assert.Equal(t, "Crepes", updated.Title)
	assert.Equal(t, core.DifficultyHard, updated.Difficulty)

	long, err := s.api.ListRecipes(ctx, client.RecipeQuery{CookTime: core.CookTimeLong, Difficulty: core.DifficultyHard})
	require.NoError(t, err)
	assert.Equal(t, 1, long.Count)

	like, err := s.api.Like(ctx, recipe.ID)
	require.NoError(t, err)
	require.NoError(t, s.api.Unlike(ctx, like.ID))
	likes, err := s.api.ListLikes(ctx)
	require.NoError(t, err)
	assert.Zero(t, likes.Count)

	comment, err := s.api.CreateComment(ctx, recipe.ID, "thin and lovely")
	require.NoError(t, err)
	require.NoError(t, s.api.DeleteComment(ctx, comment.ID))
	comments, err := s.api.ListComments(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, comments.Count)

	follow, err := s.api.Follow(ctx, bob.ProfileID)
	require.NoError(t, err)
	followed, err := s.api.GetProfile(ctx, bob.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, 1, followed.FollowersCount)
	require.NoError(t, s.api.Unfollow(ctx, follow.ID))
	followers, err := s.api.ListFollowers(ctx)
	require.NoError(t, err)
	assert.Zero(t, followers.Count)

	profile, err := s.api.UpdateProfile(ctx, alice.ProfileID, core.ProfileInput{Name: "Alice", Content: "Crepe enthusiast"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, 1, profile.RecipesCount)

	_, err = s.api.UpdateProfile(ctx, bob.ProfileID, core.ProfileInput{Name: "Mallory"})
	assert.True(t, client.IsStatus(err, http.StatusForbidden))

	require.NoError(t, s.api.DeleteRecipe(ctx, recipe.ID))
	_, err = s.api.GetRecipe(ctx, recipe.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))

	require.NoError(t, s.api.DeleteProfile(ctx, alice.ProfileID))
	_, err = s.api.GetProfile(ctx, alice.ProfileID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))

	require.NoError(t, sessions.SignOut(ctx))
	assert.Nil(t, sessions.CurrentUser())

	_, err = s.api.ListRecipes(ctx, client.RecipeQuery{})
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))
}
