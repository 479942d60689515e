package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/game"
)

type GamesHandler struct {
	SessionManager *game.SessionManager
}

func NewGamesHandler(sm *game.SessionManager) *GamesHandler {
	return &GamesHandler{SessionManager: sm}
}

// CreateGame answers POST /api/games.
func (h *GamesHandler) CreateGame(c *gin.Context) {
	var body struct {
		Rules      string            `json:"rules"`
		Difficulty domain.Difficulty `json:"difficulty"`
		HumanFirst *bool             `json:"human_first"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	rules, err := domain.RulesByName(body.Rules)
	if err != nil {
		respondError(c, err)
		return
	}
	humanFirst := body.HumanFirst == nil || *body.HumanFirst

	st, err := h.SessionManager.CreateSession(c.Request.Context(), rules, body.Difficulty, humanFirst)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// GetGame answers GET /api/games/:id.
func (h *GamesHandler) GetGame(c *gin.Context) {
	st, err := h.SessionManager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// PlayMove answers POST /api/games/:id/moves.
func (h *GamesHandler) PlayMove(c *gin.Context) {
	var body struct {
		Column *int `json:"column" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input: column is required"})
		return
	}

	st, err := h.SessionManager.HandleMove(c.Request.Context(), c.Param("id"), *body.Column)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteGame answers DELETE /api/games/:id.
func (h *GamesHandler) DeleteGame(c *gin.Context) {
	if err := h.SessionManager.RemoveSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
