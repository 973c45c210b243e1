package handlers

import (
	"net/http"

	"minerace/game"
	"minerace/services"

	"github.com/gin-gonic/gin"
)

const leaderboardLimit = 10

type LeaderboardHandler struct {
	store services.LeaderboardStore
}

func NewLeaderboardHandler(store services.LeaderboardStore) *LeaderboardHandler {
	return &LeaderboardHandler{store: store}
}

type SubmitResultRequest struct {
	Name       string   `json:"name" binding:"required"`
	Difficulty string   `json:"difficulty" binding:"required"`
	Time       *float64 `json:"time" binding:"required"`
	Mode       string   `json:"mode" binding:"required"`
}

func (h *LeaderboardHandler) GetSPBestTimes(c *gin.Context) {
	difficulty, ok := validDifficulty(c)
	if !ok {
		return
	}
	entries, err := h.store.BestTimes(c.Request.Context(), difficulty, "singleplayer", leaderboardLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *LeaderboardHandler) GetMPBestTimes(c *gin.Context) {
	difficulty, ok := validDifficulty(c)
	if !ok {
		return
	}
	entries, err := h.store.BestTimes(c.Request.Context(), difficulty, "multiplayer", leaderboardLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *LeaderboardHandler) GetMPMostWins(c *gin.Context) {
	difficulty, ok := validDifficulty(c)
	if !ok {
		return
	}
	entries, err := h.store.MostWins(c.Request.Context(), difficulty, leaderboardLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// SubmitResult records a single-player win reported by the client
// engine. Multiplayer results are recorded server-side on the win path
// and never accepted over HTTP.
func (h *LeaderboardHandler) SubmitResult(c *gin.Context) {
	var req SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}
	if _, ok := game.Difficulties[req.Difficulty]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty"})
		return
	}
	if req.Mode != "singleplayer" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode"})
		return
	}

	name := req.Name
	if runes := []rune(name); len(runes) > 16 {
		name = string(runes[:16])
	}

	best, err := h.store.UpsertBest(c.Request.Context(), name, req.Difficulty, req.Mode, *req.Time)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"isNewBest":    best.IsNewBest,
		"previousBest": best.PreviousBest,
	})
}

func validDifficulty(c *gin.Context) (string, bool) {
	difficulty := c.Param("difficulty")
	if _, ok := game.Difficulties[difficulty]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty"})
		return "", false
	}
	return difficulty, true
}
