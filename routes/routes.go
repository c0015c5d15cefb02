package routes

import (
	"time"

	"amora/handlers"
	"amora/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the full REST surface onto a gin engine. The auth
// endpoints sit behind an IP rate limit; everything else under /api requires
// a bearer token.
func SetupRouter(api *handlers.API) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     api.Cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authLimiter := middleware.NewIPRateLimiter(20, time.Minute)

	// Public routes.
	router.POST("/api/register", middleware.RateLimit(authLimiter), api.Register)
	router.POST("/api/login", middleware.RateLimit(authLimiter), api.Login)
	router.GET("/api/vapid-public-key", api.GetVapidPublicKey)
	router.POST("/api/support/chat", api.CreateSupportChat)
	router.GET("/api/support/chat", api.GetSupportChat)
	router.POST("/api/support/message", api.SendSupportMessage)

	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(api.Cfg.JWTSecret))

	// Profile.
	protected.GET("/users/:id", api.GetUser)
	protected.PUT("/users/:id/profile", api.UpdateProfile)
	protected.PUT("/users/:id/visibility", api.UpdateVisibility)
	protected.GET("/users/:id/account-status", api.GetAccountStatus)

	// Interactions.
	protected.POST("/like-profile", api.LikeProfile)
	protected.POST("/create-match", api.CreateMatch)
	protected.GET("/matches", api.GetMatches)
	protected.GET("/received-likes/:userId", api.GetReceivedLikes)
	protected.POST("/block-user", api.BlockUser)
	protected.POST("/unblock-user", api.UnblockUser)
	protected.GET("/blocked-users/:userId", api.GetBlockedUsers)
	protected.POST("/reject-profile", api.RejectProfile)
	protected.POST("/unreject-profile", api.UnrejectProfile)
	protected.GET("/rejected-profiles/:userId", api.GetRejectedProfiles)
	protected.POST("/report-user", api.ReportUser)

	// Account lifecycle.
	protected.POST("/deactivate-account", api.DeactivateAccount)
	protected.POST("/reactivate-account", api.ReactivateAccount)
	protected.POST("/delete-account", api.DeleteAccount)

	// Messaging.
	protected.GET("/messages", api.GetMessages)
	protected.POST("/messages", api.SendMessage)

	// Media and push.
	protected.POST("/upload-photo", api.UploadPhoto)
	protected.POST("/subscribe", api.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "endpoint not found",
				"code":  "NOT_FOUND",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
