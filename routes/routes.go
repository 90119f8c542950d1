package routes

import (
	"time"

	"chorely/handlers"
	"chorely/middleware"
	ws "chorely/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Profile *handlers.ProfileHandler
	Friends *handlers.FriendsHandler
	Events  *handlers.EventsHandler
	Stats   *handlers.StatsHandler
	WS      *ws.Manager
}

func SetupRouter(h Handlers, jwtSecret []byte) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Chorely API is running",
			"time":    time.Now().Unix(),
			"ws":      "WebSocket available at /ws",
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:5500", "http://127.0.0.1:5500", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Signup and login run behind a tight per-IP limiter; everything else
	// shares a looser one.
	authLimiter := middleware.NewIPRateLimiter(10, time.Minute)
	apiLimiter := middleware.NewIPRateLimiter(120, time.Minute)

	router.POST("/api/signup", authLimiter.Middleware(), h.Auth.Signup)
	router.POST("/api/login", authLimiter.Middleware(), h.Auth.Login)

	protected := router.Group("/api")
	protected.Use(apiLimiter.Middleware())
	protected.Use(middleware.JWTAuth(jwtSecret))

	// Profile
	protected.GET("/me", h.Profile.Me)
	protected.PUT("/me", h.Profile.Update)
	protected.PUT("/me/email", h.Profile.UpdateEmail)
	protected.PUT("/me/phone", h.Profile.UpdatePhoneNumber)
	protected.DELETE("/me", h.Profile.DeleteAccount)

	// Friends
	protected.GET("/friends", h.Friends.List)
	protected.POST("/friends/:id", h.Friends.Add)
	protected.DELETE("/friends/:id", h.Friends.Remove)
	protected.GET("/users/search", h.Friends.Search)

	// Events
	protected.POST("/events", h.Events.Create)
	protected.GET("/events/mine", h.Events.Mine)
	protected.GET("/events/friends", h.Events.FriendsEvents)
	protected.GET("/events/day", h.Events.OnDay)
	protected.POST("/events/:id/join", h.Events.Join)
	protected.POST("/events/:id/leave", h.Events.Leave)
	protected.POST("/events/:id/complete", h.Events.Complete)

	// Statistics
	protected.GET("/stats/series", h.Stats.Series)
	protected.GET("/stats/today", h.Stats.Today)

	// Live sync (token passed as ?token= on upgrade)
	router.GET("/ws", middleware.JWTAuth(jwtSecret), ws.Handler(h.WS))

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
