package routes

import (
	"log"
	"net/http"

	"minerace/handlers"
	"minerace/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	leaderboardHandler *handlers.LeaderboardHandler,
	hub *services.Hub,
) {
	// REST API for the leaderboard views
	api := router.Group("/api")
	{
		leaderboard := api.Group("/leaderboard")
		{
			leaderboard.GET("/sp/:difficulty", leaderboardHandler.GetSPBestTimes)
			leaderboard.GET("/mp/:difficulty", leaderboardHandler.GetMPBestTimes)
			leaderboard.GET("/mp-wins/:difficulty", leaderboardHandler.GetMPMostWins)
			leaderboard.POST("", leaderboardHandler.SubmitResult)
		}
	}

	// WebSocket endpoint for room/session events. Rooms are created and
	// joined over the socket, so there is nothing to validate up front.
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
