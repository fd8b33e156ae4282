package devserver

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *AuthService, repo *Repository, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	auth := NewAuthHandlers(authService, repo)
	resources := NewResourceHandlers(repo)
	requireAuth := AuthMiddleware(authService)

	// Auth routes
	rest := router.Group("/dj-rest-auth")
	{
		rest.POST("/registration/", auth.Register)
		rest.POST("/login/", auth.Login)
		rest.POST("/token/refresh/", auth.Refresh)
		rest.POST("/logout/", auth.Logout)
		rest.GET("/user/", requireAuth, auth.User)
	}

	// Protected API routes
	api := router.Group("/")
	api.Use(requireAuth)
	{
		api.GET("/recipes/", resources.ListRecipes)
		api.POST("/recipes/", resources.CreateRecipe)
		api.GET("/recipes/:id/", resources.GetRecipe)
		api.PUT("/recipes/:id/", resources.UpdateRecipe)
		api.DELETE("/recipes/:id/", resources.DeleteRecipe)

		api.GET("/profiles/", resources.ListProfiles)
		api.GET("/profiles/:id/", resources.GetProfile)
		api.PUT("/profiles/:id/", resources.UpdateProfile)
		api.DELETE("/profiles/:id/", resources.DeleteProfile)

		api.GET("/likes/", resources.ListLikes)
		api.POST("/likes/", resources.CreateLike)
		api.DELETE("/likes/:id/", resources.DeleteLike)

		api.GET("/comments/", resources.ListComments)
		api.POST("/comments/", resources.CreateComment)
		api.DELETE("/comments/:id/", resources.DeleteComment)

		api.GET("/followers/", resources.ListFollowers)
		api.POST("/followers/", resources.CreateFollower)
		api.DELETE("/followers/:id/", resources.DeleteFollower)
	}

	return router
}
