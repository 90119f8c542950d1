package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorely/database"
	"chorely/geocode"
	"chorely/handlers"
	"chorely/routes"
	"chorely/service"
	"chorely/store"
	ws "chorely/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("🚀 Starting Chorely Backend Server...")

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("⚙️ Loaded configuration from .env")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	mongoURI := os.Getenv("MONGODB_URI")
	if jwtSecret == "" || mongoURI == "" {
		log.Fatal("❌ JWT_SECRET and MONGODB_URI must be set")
	}

	log.Println("🔌 Connecting to MongoDB...")
	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectMongo(); err != nil {
			dbErr = err
			log.Printf("❌ MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("❌ Failed to connect to MongoDB:", dbErr)
	}
	log.Println("✅ MongoDB connected successfully")

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := database.Client.Ping(pingCtx, nil); err != nil {
		log.Fatal("❌ MongoDB ping failed:", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
		log.Println("⚙️ Running in RELEASE mode")
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("⚙️ Running in DEBUG mode")
	}

	// ===== STORES AND SERVICES =====
	users := store.NewUserStore(database.Users)
	events := store.NewEventStore(database.Events)

	accounts := &service.AccountsService{Users: users, JWTSecret: []byte(jwtSecret)}
	friends := &service.FriendsService{Users: users}
	statsService := &service.StatsService{Users: users, Events: events}

	eventsService := &service.EventsService{Events: events, Users: users}
	if geocoder := geocode.NewFromEnv(); geocoder != nil {
		eventsService.Geocode = geocoder
		log.Println("✅ Reverse geocoding enabled")
	} else {
		log.Println("⚙️ RAPIDAPI_KEY not set, events will be created without location names")
	}

	// ===== WEBSOCKET SYNC HUB =====
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	wsManager := ws.NewManager(users, events)
	go wsManager.Start(hubCtx)
	log.Println("✅ WebSocket endpoint: /ws")

	router := routes.SetupRouter(routes.Handlers{
		Auth:    &handlers.AuthHandler{Accounts: accounts},
		Profile: &handlers.ProfileHandler{Accounts: accounts, Users: users},
		Friends: &handlers.FriendsHandler{Friends: friends},
		Events:  &handlers.EventsHandler{Events: eventsService},
		Stats:   &handlers.StatsHandler{Stats: statsService},
		WS:      wsManager,
	}, []byte(jwtSecret))

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "Chorely Backend Running 🚀",
			"service": "healthy",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	hubCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}
	if err := database.DisconnectMongo(); err != nil {
		log.Println("❌ MongoDB disconnect:", err)
	}

	log.Println("👋 Server stopped gracefully")
}
