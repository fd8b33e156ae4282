package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/recipebook/core"
)

func TestRecipeQuery_Values(t *testing.T) {
	tests := []struct {
		name  string
		query RecipeQuery
		want  url.Values
	}{
		{"empty", RecipeQuery{}, url.Values{}},
		{"quick", RecipeQuery{CookTime: core.CookTimeQuick}, url.Values{"cook_time__lte": {"30"}}},
		{"long", RecipeQuery{CookTime: core.CookTimeLong}, url.Values{"cook_time__gte": {"60"}}},
		{
			"everything",
			RecipeQuery{Search: "pie", Difficulty: core.DifficultyHard, Owner: "bob", Page: 2},
			url.Values{"search": {"pie"}, "difficulty": {"Hard"}, "owner": {"bob"}, "page": {"2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.values())
		})
	}
}

func TestNewEndpoint_RejectsRelativeURL(t *testing.T) {
	_, err := NewAPIClient("localhost:9000", nil)
	assert.Error(t, err)

	_, err = NewAPIClient("/api", nil)
	assert.Error(t, err)
}

func TestAPIClient_KeepsBasePath(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_ = json.NewEncoder(w).Encode(core.Page[core.Recipe]{Count: 0, Results: []core.Recipe{}})
	}))
	defer srv.Close()

	api, err := NewAPIClient(srv.URL+"/api", srv.Client())
	require.NoError(t, err)

	_, err = api.ListRecipes(context.Background(), RecipeQuery{Search: "soup"})
	require.NoError(t, err)
	assert.Equal(t, "/api/recipes/", got.URL.Path)
	assert.Equal(t, "soup", got.URL.Query().Get("search"))
}

func TestAPIClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	}))
	defer srv.Close()

	api, err := NewAPIClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = api.GetRecipe(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusUnauthorized))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/recipes/7/", se.Path)
	assert.Equal(t, `{"detail":"Not found."}`, se.Body)
}

func TestAuthClient_LogoutSendsBearer(t *testing.T) {
	var auth string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background(), core.Credentials{Access: "A1", Refresh: "R1"}))
	assert.Equal(t, "Bearer A1", auth)
	assert.Equal(t, map[string]string{"refresh": "R1"}, body)
}

func TestAuthClient_RefreshKeepsMissingRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathRefresh, r.URL.Path)
		_, _ = w.Write([]byte(`{"access":"A2"}`))
	}))
	defer srv.Close()

	c, err := NewAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	creds, err := c.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, core.Credentials{Access: "A2"}, creds)
}
