package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/recipebook/core"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *AuthService
	repo        *Repository
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *AuthService, repo *Repository) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		repo:        repo,
	}
}

// Register handles account creation
func (h *AuthHandlers) Register(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Password1 string `json:"password1" binding:"required"`
		Password2 string `json:"password2" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	identity, err := h.authService.Register(c.Request.Context(), req.Username, req.Password1, req.Password2)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": identity})
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	creds, identity, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  creds.Access,
		"refresh": creds.Refresh,
		"user":    identity,
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	creds, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  creds.Access,
		"refresh": creds.Refresh,
	})
}

// Logout handles session logout. The access token is not required.
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token was not included in request data."})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.Refresh); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Successfully logged out."})
}

// User returns the authenticated user
func (h *AuthHandlers) User(c *gin.Context) {
	identity, err := h.repo.Identity(currentUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

// writeError maps domain errors to status codes
func writeError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errorMsg := "Internal server error"

	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		statusCode = http.StatusBadRequest
		errorMsg = "Unable to log in with provided credentials."
	case errors.Is(err, core.ErrUsernameTaken):
		statusCode = http.StatusBadRequest
		errorMsg = "A user with that username already exists."
	case errors.Is(err, core.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errorMsg = "Invalid request"
	case errors.Is(err, core.ErrTokenExpired), errors.Is(err, core.ErrTokenInvalidated), errors.Is(err, core.ErrInvalidToken):
		statusCode = http.StatusUnauthorized
		errorMsg = "Token is invalid or expired"
	case errors.Is(err, core.ErrForbidden):
		statusCode = http.StatusForbidden
		errorMsg = "You do not have permission to perform this action."
	case errors.Is(err, core.ErrNotFound):
		statusCode = http.StatusNotFound
		errorMsg = "Not found."
	}

	c.JSON(statusCode, gin.H{"detail": errorMsg})
}
