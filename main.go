package main

import (
	"log"

	"minerace/config"
	"minerace/handlers"
	"minerace/middleware"
	"minerace/models"
	"minerace/routes"
	"minerace/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize leaderboard storage. Rooms are in-memory and ephemeral;
	// only finished-game results persist. If postgres is unreachable the
	// server still runs with a process-local store.
	var store services.LeaderboardStore
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Printf("Database unavailable, using in-memory leaderboard: %v", err)
		store = services.NewMemoryStore()
	} else {
		if err := db.AutoMigrate(&models.GameResult{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		redisClient := config.InitRedis(cfg)
		store = services.NewDBStore(db, redisClient)
	}

	// Initialize services
	registry := services.NewRoomRegistry()
	sessions := services.NewSessionService(registry, store)

	// Initialize WebSocket hub
	hub := services.NewHub(sessions)
	go hub.Run()

	// Initialize handlers
	leaderboardHandler := handlers.NewLeaderboardHandler(store)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, leaderboardHandler, hub)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
