package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/abhinash-ops/MindCanvus/config"
	"github.com/abhinash-ops/MindCanvus/handlers"
	"github.com/abhinash-ops/MindCanvus/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// Auth (rate limited)
	auth := router.Group("/api/auth")
	auth.Use(middleware.RateLimitMiddleware())
	auth.POST("/register", handlers.Register)
	auth.POST("/login", handlers.Login)

	// Public reads; optional auth widens post visibility for authors
	public := router.Group("/api")
	public.Use(middleware.OptionalAuthMiddleware())
	public.GET("/posts", handlers.GetPosts)
	public.GET("/posts/categories", handlers.GetCategories)
	public.GET("/posts/:id", handlers.GetPost)
	public.GET("/posts/:id/comments", handlers.GetComments)
	public.GET("/users/:id", handlers.GetUser)
	public.GET("/vapid-public-key", handlers.GetVapidPublicKey)

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())

	protected.GET("/me", handlers.GetMe)
	protected.PUT("/me", handlers.UpdateMe)
	protected.POST("/users/:id/follow", handlers.ToggleFollow)

	protected.POST("/posts", handlers.CreatePost)
	protected.PUT("/posts/:id", handlers.UpdatePost)
	protected.DELETE("/posts/:id", handlers.DeletePost)
	protected.POST("/posts/:id/like", handlers.ToggleLikePost)

	protected.POST("/comments", handlers.AddComment)
	protected.PUT("/comments/:id", handlers.UpdateComment)
	protected.DELETE("/comments/:id", handlers.DeleteComment)
	protected.POST("/comments/:id/like", handlers.ToggleLikeComment)

	protected.POST("/friends/request/:userId", handlers.SendFriendRequest)
	protected.PUT("/friends/accept/:userId", handlers.AcceptFriendRequest)
	protected.PUT("/friends/reject/:userId", handlers.RejectFriendRequest)
	protected.DELETE("/friends/request/:userId", handlers.CancelFriendRequest)
	protected.DELETE("/friends/:userId", handlers.RemoveFriend)
	protected.GET("/friends", handlers.GetFriends)
	protected.GET("/friends/requests", handlers.GetFriendRequests)
	protected.GET("/friends/requests/sent", handlers.GetSentRequests)
	protected.GET("/friends/suggestions", handlers.GetSuggestions)

	protected.GET("/messages/conversations", handlers.GetConversations)
	protected.GET("/messages/:userId", handlers.GetConversation)
	protected.POST("/messages/:userId", handlers.SendMessage)
	protected.PUT("/messages/:userId/read", handlers.MarkConversationRead)

	protected.POST("/push/subscribe", handlers.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"message": "Endpoint not found"})
			return
		}
		c.Next()
	})

	return router
}
