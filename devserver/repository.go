package devserver

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/recipebook/core"
)

const pageSize = 10

type user struct {
	ID           int
	Username     string
	PasswordHash []byte
	ProfileID    int
}

// RecipeFilter is the server-side recipe query
type RecipeFilter struct {
	Search      string
	Difficulty  core.Difficulty
	Owner       string
	CookTimeLTE int
	CookTimeGTE int
}

// Repository is the in-memory data set behind the reference backend
type Repository struct {
	mu     sync.RWMutex
	nextID int
	now    func() time.Time

	users     map[string]*user
	profiles  map[int]*core.Profile
	recipes   map[int]*core.Recipe
	likes     map[int]*core.Like
	comments  map[int]*core.Comment
	followers map[int]*core.Follower
}

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{
		now:       time.Now,
		users:     make(map[string]*user),
		profiles:  make(map[int]*core.Profile),
		recipes:   make(map[int]*core.Recipe),
		likes:     make(map[int]*core.Like),
		comments:  make(map[int]*core.Comment),
		followers: make(map[int]*core.Follower),
	}
}

func (r *Repository) id() int {
	r.nextID++
	return r.nextID
}

// CreateUser adds a user and its profile
func (r *Repository) CreateUser(username string, passwordHash []byte) (*core.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[username]; exists {
		return nil, core.ErrUsernameTaken
	}

	profile := &core.Profile{ID: r.id(), Owner: username, Name: username, CreatedAt: r.now().UTC()}
	u := &user{ID: r.id(), Username: username, PasswordHash: passwordHash, ProfileID: profile.ID}
	r.users[username] = u
	r.profiles[profile.ID] = profile

	return identityOf(u), nil
}

func (r *Repository) user(username string) (*user, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// Identity returns the public identity of username
func (r *Repository) Identity(username string) (*core.Identity, error) {
	u, err := r.user(username)
	if err != nil {
		return nil, err
	}
	return identityOf(u), nil
}

func identityOf(u *user) *core.Identity {
	return &core.Identity{ID: u.ID, Username: u.Username, DisplayName: u.Username, ProfileID: u.ProfileID}
}

func (r *Repository) ListRecipes(f RecipeFilter) []core.Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	out := make([]core.Recipe, 0, len(r.recipes))
	for _, recipe := range r.recipes {
		switch {
		case search != "" && !strings.Contains(strings.ToLower(recipe.Title), search):
			continue
		case f.Difficulty != "" && recipe.Difficulty != f.Difficulty:
			continue
		case f.Owner != "" && recipe.Owner != f.Owner:
			continue
		case f.CookTimeLTE > 0 && recipe.CookTime > f.CookTimeLTE:
			continue
		case f.CookTimeGTE > 0 && recipe.CookTime < f.CookTimeGTE:
			continue
		}
		out = append(out, r.recipeView(recipe))
	}

	slices.SortFunc(out, func(a, b core.Recipe) int { return b.ID - a.ID })
	return out
}

func (r *Repository) GetRecipe(id int) (*core.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recipe, ok := r.recipes[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	view := r.recipeView(recipe)
	return &view, nil
}

func (r *Repository) CreateRecipe(owner string, in core.RecipeInput) (*core.Recipe, error) {
	if err := validateRecipe(in); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	recipe := &core.Recipe{ID: r.id(), Owner: owner, CreatedAt: now}
	applyRecipe(recipe, in, now)
	r.recipes[recipe.ID] = recipe

	view := r.recipeView(recipe)
	return &view, nil
}

func (r *Repository) UpdateRecipe(owner string, id int, in core.RecipeInput) (*core.Recipe, error) {
	if err := validateRecipe(in); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recipe, ok := r.recipes[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if recipe.Owner != owner {
		return nil, core.ErrForbidden
	}
	applyRecipe(recipe, in, r.now().UTC())

	view := r.recipeView(recipe)
	return &view, nil
}

func (r *Repository) DeleteRecipe(owner string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipe, ok := r.recipes[id]
	if !ok {
		return core.ErrNotFound
	}
	if recipe.Owner != owner {
		return core.ErrForbidden
	}

	delete(r.recipes, id)
	for likeID, like := range r.likes {
		if like.Recipe == id {
			delete(r.likes, likeID)
		}
	}
	for commentID, comment := range r.comments {
		if comment.Recipe == id {
			delete(r.comments, commentID)
		}
	}
	return nil
}

func validateRecipe(in core.RecipeInput) error {
	if strings.TrimSpace(in.Title) == "" || in.CookTime < 0 || (in.Difficulty != "" && !in.Difficulty.Valid()) {
		return core.ErrInvalidInput
	}
	return nil
}

func applyRecipe(recipe *core.Recipe, in core.RecipeInput, now time.Time) {
	recipe.Title = in.Title
	recipe.ShortDescription = in.ShortDescription
	recipe.Ingredients = in.Ingredients
	recipe.Steps = in.Steps
	recipe.CookTime = in.CookTime
	recipe.Difficulty = in.Difficulty
	if recipe.Difficulty == "" {
		recipe.Difficulty = core.DifficultyEasy
	}
	recipe.ImageURL = in.ImageURL
	recipe.UpdatedAt = now
}

// recipeView copies recipe with its derived counters. Caller holds r.mu.
func (r *Repository) recipeView(recipe *core.Recipe) core.Recipe {
	view := *recipe
	for _, like := range r.likes {
		if like.Recipe == recipe.ID {
			view.LikesCount++
		}
	}
	for _, comment := range r.comments {
		if comment.Recipe == recipe.ID {
			view.CommentsCount++
		}
	}
	return view
}

func (r *Repository) ListProfiles() []core.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, r.profileView(p))
	}
	slices.SortFunc(out, func(a, b core.Profile) int { return a.ID - b.ID })
	return out
}

func (r *Repository) GetProfile(id int) (*core.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	view := r.profileView(p)
	return &view, nil
}

func (r *Repository) UpdateProfile(owner string, id int, in core.ProfileInput) (*core.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if p.Owner != owner {
		return nil, core.ErrForbidden
	}
	p.Name = in.Name
	p.Content = in.Content
	if in.Image != "" {
		p.Image = in.Image
	}

	view := r.profileView(p)
	return &view, nil
}

// DeleteProfile removes the profile and its owner's account
func (r *Repository) DeleteProfile(owner string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return core.ErrNotFound
	}
	if p.Owner != owner {
		return core.ErrForbidden
	}

	delete(r.profiles, id)
	delete(r.users, owner)
	for fid, f := range r.followers {
		if f.Followed == id || f.Owner == owner {
			delete(r.followers, fid)
		}
	}
	return nil
}

// profileView copies p with its derived counters. Caller holds r.mu.
func (r *Repository) profileView(p *core.Profile) core.Profile {
	view := *p
	for _, recipe := range r.recipes {
		if recipe.Owner == p.Owner {
			view.RecipesCount++
		}
	}
	for _, f := range r.followers {
		if f.Followed == p.ID {
			view.FollowersCount++
		}
		if f.Owner == p.Owner {
			view.FollowingCount++
		}
	}
	return view
}

func (r *Repository) ListLikes(owner string) []core.Like {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Like, 0)
	for _, like := range r.likes {
		if like.Owner == owner {
			out = append(out, *like)
		}
	}
	slices.SortFunc(out, func(a, b core.Like) int { return a.ID - b.ID })
	return out
}

func (r *Repository) CreateLike(owner string, recipeID int) (*core.Like, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[recipeID]; !ok {
		return nil, core.ErrInvalidInput
	}
	for _, like := range r.likes {
		if like.Owner == owner && like.Recipe == recipeID {
			return nil, core.ErrInvalidInput
		}
	}

	like := &core.Like{ID: r.id(), Owner: owner, Recipe: recipeID, CreatedAt: r.now().UTC()}
	r.likes[like.ID] = like
	copied := *like
	return &copied, nil
}

func (r *Repository) DeleteLike(owner string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	like, ok := r.likes[id]
	if !ok {
		return core.ErrNotFound
	}
	if like.Owner != owner {
		return core.ErrForbidden
	}
	delete(r.likes, id)
	return nil
}

// ListComments returns comments of recipeID, or all comments when it is zero
func (r *Repository) ListComments(recipeID int) []core.Comment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Comment, 0)
	for _, c := range r.comments {
		if recipeID == 0 || c.Recipe == recipeID {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b core.Comment) int { return a.ID - b.ID })
	return out
}

func (r *Repository) CreateComment(owner string, recipeID int, content string) (*core.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, core.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[recipeID]; !ok {
		return nil, core.ErrInvalidInput
	}

	c := &core.Comment{ID: r.id(), Owner: owner, Recipe: recipeID, Content: content, CreatedAt: r.now().UTC()}
	r.comments[c.ID] = c
	copied := *c
	return &copied, nil
}

func (r *Repository) DeleteComment(owner string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.comments[id]
	if !ok {
		return core.ErrNotFound
	}
	if c.Owner != owner {
		return core.ErrForbidden
	}
	delete(r.comments, id)
	return nil
}

// ListFollowers returns the follow relations created by owner
func (r *Repository) ListFollowers(owner string) []core.Follower {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Follower, 0)
	for _, f := range r.followers {
		if f.Owner == owner {
			out = append(out, *f)
		}
	}
	slices.SortFunc(out, func(a, b core.Follower) int { return a.ID - b.ID })
	return out
}

func (r *Repository) Follow(owner string, profileID int) (*core.Follower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[profileID]
	if !ok || p.Owner == owner {
		return nil, core.ErrInvalidInput
	}
	for _, f := range r.followers {
		if f.Owner == owner && f.Followed == profileID {
			return nil, core.ErrInvalidInput
		}
	}

	f := &core.Follower{ID: r.id(), Owner: owner, Followed: profileID, CreatedAt: r.now().UTC()}
	r.followers[f.ID] = f
	copied := *f
	return &copied, nil
}

func (r *Repository) Unfollow(owner string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.followers[id]
	if !ok {
		return core.ErrNotFound
	}
	if f.Owner != owner {
		return core.ErrForbidden
	}
	delete(r.followers, id)
	return nil
}

// paginate slices list into the 1-based page
func paginate[T any](list []T, page int, link func(page int) string) core.Page[T] {
	if page < 1 {
		page = 1
	}
	out := core.Page[T]{Count: len(list), Results: []T{}}

	start := (page - 1) * pageSize
	if start >= len(list) {
		return out
	}
	end := min(start+pageSize, len(list))
	out.Results = list[start:end]

	if end < len(list) {
		out.Next = link(page + 1)
	}
	if page > 1 {
		out.Previous = link(page - 1)
	}
	return out
}
