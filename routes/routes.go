package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tetra/auth"
	"tetra/database"
	"tetra/handlers"
	"tetra/middleware"
)

func SetupRouter(store *database.Store, issuer *auth.Issuer) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	authHandler := &handlers.AuthHandler{Store: store, Issuer: issuer}
	postHandler := &handlers.PostHandler{Store: store}
	communityHandler := &handlers.CommunityHandler{Store: store}

	requireAuth := middleware.RequireAuth(issuer)

	// Auth
	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/auth/me", requireAuth, authHandler.Me)

	// Posts
	router.GET("/posts", postHandler.List)
	router.POST("/posts", requireAuth, postHandler.Create)
	router.GET("/posts/:id", postHandler.Get)
	router.PATCH("/posts/:id", requireAuth, postHandler.Update)
	router.DELETE("/posts/:id", requireAuth, postHandler.Delete)
	router.POST("/posts/:id/vote", requireAuth, postHandler.Vote)
	router.POST("/posts/:id/comments", requireAuth, postHandler.AddComment)

	// Communities
	router.GET("/communities", communityHandler.List)
	router.POST("/communities", requireAuth, communityHandler.Create)
	router.GET("/communities/:id", communityHandler.Get)
	router.POST("/communities/:id/join", requireAuth, communityHandler.Join)
	router.POST("/communities/:id/leave", requireAuth, communityHandler.Leave)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"message": "Endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return router
}
