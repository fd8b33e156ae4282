package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
)

// APIClient calls the protected REST resources. Its http.Client should use
// the session guard as transport.
type APIClient struct {
	endpoint
}

var _ ports.IdentityFetcher = (*APIClient)(nil)

// NewAPIClient creates an API client for baseURL
func NewAPIClient(baseURL string, httpClient *http.Client) (*APIClient, error) {
	e, err := newEndpoint(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	return &APIClient{endpoint: e}, nil
}

// CurrentUser resolves the signed-in user
func (c *APIClient) CurrentUser(ctx context.Context) (*core.Identity, error) {
	var identity core.Identity
	if err := c.call(ctx, http.MethodGet, PathUser, nil, nil, &identity, nil); err != nil {
		return nil, err
	}
	return &identity, nil
}

// RecipeQuery filters the recipe list server side
type RecipeQuery struct {
	Search     string
	Difficulty core.Difficulty
	CookTime   core.CookTime
	Owner      string
	Page       int
}

func (q RecipeQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Difficulty != "" {
		v.Set("difficulty", string(q.Difficulty))
	}
	switch q.CookTime {
	case core.CookTimeQuick:
		v.Set("cook_time__lte", strconv.Itoa(core.QuickCookTime))
	case core.CookTimeLong:
		v.Set("cook_time__gte", strconv.Itoa(core.LongCookTime))
	}
	if q.Owner != "" {
		v.Set("owner", q.Owner)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

func pageValues(page int) url.Values {
	if page <= 0 {
		return nil
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func item(collection string, id int) string {
	return fmt.Sprintf("/%s/%d/", collection, id)
}

func (c *APIClient) ListRecipes(ctx context.Context, q RecipeQuery) (*core.Page[core.Recipe], error) {
	var page core.Page[core.Recipe]
	if err := c.call(ctx, http.MethodGet, "/recipes/", q.values(), nil, &page, nil); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *APIClient) GetRecipe(ctx context.Context, id int) (*core.Recipe, error) {
	var recipe core.Recipe
	if err := c.call(ctx, http.MethodGet, item("recipes", id), nil, nil, &recipe, nil); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (c *APIClient) CreateRecipe(ctx context.Context, in core.RecipeInput) (*core.Recipe, error) {
	var recipe core.Recipe
	if err := c.call(ctx, http.MethodPost, "/recipes/", nil, in, &recipe, nil); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (c *APIClient) UpdateRecipe(ctx context.Context, id int, in core.RecipeInput) (*core.Recipe, error) {
	var recipe core.Recipe
	if err := c.call(ctx, http.MethodPut, item("recipes", id), nil, in, &recipe, nil); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (c *APIClient) DeleteRecipe(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, item("recipes", id), nil, nil, nil, nil)
}

func (c *APIClient) ListProfiles(ctx context.Context, page int) (*core.Page[core.Profile], error) {
	var out core.Page[core.Profile]
	if err := c.call(ctx, http.MethodGet, "/profiles/", pageValues(page), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) GetProfile(ctx context.Context, id int) (*core.Profile, error) {
	var profile core.Profile
	if err := c.call(ctx, http.MethodGet, item("profiles", id), nil, nil, &profile, nil); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *APIClient) UpdateProfile(ctx context.Context, id int, in core.ProfileInput) (*core.Profile, error) {
	var profile core.Profile
	if err := c.call(ctx, http.MethodPut, item("profiles", id), nil, in, &profile, nil); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *APIClient) DeleteProfile(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, item("profiles", id), nil, nil, nil, nil)
}

// ListLikes returns the likes of the signed-in user
func (c *APIClient) ListLikes(ctx context.Context) (*core.Page[core.Like], error) {
	var out core.Page[core.Like]
	if err := c.call(ctx, http.MethodGet, "/likes/", nil, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Like(ctx context.Context, recipeID int) (*core.Like, error) {
	var like core.Like
	if err := c.call(ctx, http.MethodPost, "/likes/", nil, map[string]int{"recipe": recipeID}, &like, nil); err != nil {
		return nil, err
	}
	return &like, nil
}

func (c *APIClient) Unlike(ctx context.Context, likeID int) error {
	return c.call(ctx, http.MethodDelete, item("likes", likeID), nil, nil, nil, nil)
}

func (c *APIClient) ListComments(ctx context.Context, recipeID int) (*core.Page[core.Comment], error) {
	var q url.Values
	if recipeID > 0 {
		q = url.Values{"recipe": {strconv.Itoa(recipeID)}}
	}
	var out core.Page[core.Comment]
	if err := c.call(ctx, http.MethodGet, "/comments/", q, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CreateComment(ctx context.Context, recipeID int, content string) (*core.Comment, error) {
	in := struct {
		Recipe  int    `json:"recipe"`
		Content string `json:"content"`
	}{Recipe: recipeID, Content: content}

	var comment core.Comment
	if err := c.call(ctx, http.MethodPost, "/comments/", nil, in, &comment, nil); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *APIClient) DeleteComment(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, item("comments", id), nil, nil, nil, nil)
}

func (c *APIClient) ListFollowers(ctx context.Context) (*core.Page[core.Follower], error) {
	var out core.Page[core.Follower]
	if err := c.call(ctx, http.MethodGet, "/followers/", nil, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// Follow makes the signed-in user follow the given profile
func (c *APIClient) Follow(ctx context.Context, profileID int) (*core.Follower, error) {
	var f core.Follower
	if err := c.call(ctx, http.MethodPost, "/followers/", nil, map[string]int{"followed": profileID}, &f, nil); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *APIClient) Unfollow(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, item("followers", id), nil, nil, nil, nil)
}
