package devserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/recipebook/core"
)

// ResourceHandlers serves the recipe, profile and social endpoints
type ResourceHandlers struct {
	repo *Repository
}

func NewResourceHandlers(repo *Repository) *ResourceHandlers {
	return &ResourceHandlers{repo: repo}
}

func (h *ResourceHandlers) ListRecipes(c *gin.Context) {
	lte, err1 := intQuery(c, "cook_time__lte")
	gte, err2 := intQuery(c, "cook_time__gte")
	page, err3 := intQuery(c, "page")
	difficulty := core.Difficulty(c.Query("difficulty"))
	if err1 != nil || err2 != nil || err3 != nil || (difficulty != "" && !difficulty.Valid()) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid query"})
		return
	}

	recipes := h.repo.ListRecipes(RecipeFilter{
		Search:      c.Query("search"),
		Difficulty:  difficulty,
		Owner:       c.Query("owner"),
		CookTimeLTE: lte,
		CookTimeGTE: gte,
	})
	c.JSON(http.StatusOK, paginate(recipes, page, pageLink(c)))
}

func (h *ResourceHandlers) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	recipe, err := h.repo.GetRecipe(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *ResourceHandlers) CreateRecipe(c *gin.Context) {
	var in core.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}
	recipe, err := h.repo.CreateRecipe(currentUsername(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *ResourceHandlers) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in core.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}
	recipe, err := h.repo.UpdateRecipe(currentUsername(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *ResourceHandlers) DeleteRecipe(c *gin.Context) {
	h.delete(c, h.repo.DeleteRecipe)
}

func (h *ResourceHandlers) ListProfiles(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid query"})
		return
	}
	c.JSON(http.StatusOK, paginate(h.repo.ListProfiles(), page, pageLink(c)))
}

func (h *ResourceHandlers) GetProfile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	profile, err := h.repo.GetProfile(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ResourceHandlers) UpdateProfile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in core.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}
	profile, err := h.repo.UpdateProfile(currentUsername(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ResourceHandlers) DeleteProfile(c *gin.Context) {
	h.delete(c, h.repo.DeleteProfile)
}

func (h *ResourceHandlers) ListLikes(c *gin.Context) {
	page, _ := intQuery(c, "page")
	c.JSON(http.StatusOK, paginate(h.repo.ListLikes(currentUsername(c)), page, pageLink(c)))
}

func (h *ResourceHandlers) CreateLike(c *gin.Context) {
	var req struct {
		Recipe int `json:"recipe" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}
	like, err := h.repo.CreateLike(currentUsername(c), req.Recipe)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, like)
}

func (h *ResourceHandlers) DeleteLike(c *gin.Context) {
	h.delete(c, h.repo.DeleteLike)
}

// ListComments accepts an optional recipe filter
func (h *ResourceHandlers) ListComments(c *gin.Context) {
	recipeID, err1 := intQuery(c, "recipe")
	page, err2 := intQuery(c, "page")
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid query"})
		return
	}
	c.JSON(http.StatusOK, paginate(h.repo.ListComments(recipeID), page, pageLink(c)))
}

func (h *ResourceHandlers) CreateComment(c *gin.Context) {
	var req struct {
		Recipe  int    `json:"recipe" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}
	comment, err := h.repo.CreateComment(currentUsername(c), req.Recipe, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *ResourceHandlers) DeleteComment(c *gin.Context) {
	h.delete(c, h.repo.DeleteComment)
}

func (h *ResourceHandlers) ListFollowers(c *gin.Context) {
	page, _ := intQuery(c, "page")
	c.JSON(http.StatusOK, paginate(h.repo.ListFollowers(currentUsername(c)), page, pageLink(c)))
}

func (h *ResourceHandlers) CreateFollower(c *gin.Context) {
	var req struct {
		Followed int `json:"followed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}
	f, err := h.repo.Follow(currentUsername(c), req.Followed)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *ResourceHandlers) DeleteFollower(c *gin.Context) {
	h.delete(c, h.repo.Unfollow)
}

func (h *ResourceHandlers) delete(c *gin.Context, remove func(owner string, id int) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := remove(currentUsername(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

// intQuery returns zero for an absent parameter
func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func pageLink(c *gin.Context) func(page int) string {
	return func(page int) string {
		q := c.Request.URL.Query()
		q.Set("page", strconv.Itoa(page))
		return c.Request.URL.Path + "?" + q.Encode()
	}
}
