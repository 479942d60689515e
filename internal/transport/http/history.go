package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/analysis"
)

type GameHistoryReader interface {
	GetGameHistory(ctx context.Context, limit int) ([]domain.GameRecord, error)
	GetGameByID(ctx context.Context, gameID string) (*domain.GameRecord, error)
}

// HistoryHandler serves finished games. Games is nil when no database is
// configured.
type HistoryHandler struct {
	Games GameHistoryReader
}

func NewHistoryHandler(games GameHistoryReader) *HistoryHandler {
	return &HistoryHandler{Games: games}
}

type gameHistoryItem struct {
	ID         string            `json:"id"`
	Rules      string            `json:"rules"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Result     string            `json:"result"` // "win", "loss", "draw" from the human's side
	MovesCount int               `json:"moves_count"`
	FinishedAt string            `json:"finished_at"`
}

func resultFor(g domain.GameRecord) string {
	switch {
	case g.Status == domain.StatusDraw || g.Winner == domain.Empty:
		return "draw"
	case g.Winner == g.HumanSide:
		return "win"
	}
	return "loss"
}

// GetHistory answers GET /api/games/history.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if h.Games == nil {
		c.JSON(http.StatusOK, []gameHistoryItem{})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	games, err := h.Games.GetGameHistory(c.Request.Context(), analysis.ClampLimit(limit))
	if err != nil {
		respondError(c, err)
		return
	}

	history := make([]gameHistoryItem, 0, len(games))
	for _, g := range games {
		history = append(history, gameHistoryItem{
			ID:         g.GameID,
			Rules:      g.Rules,
			Difficulty: g.Difficulty,
			Result:     resultFor(g),
			MovesCount: len(g.Moves),
			FinishedAt: g.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, history)
}

// GetGameDetails answers GET /api/games/history/:id.
func (h *HistoryHandler) GetGameDetails(c *gin.Context) {
	if h.Games == nil {
		respondError(c, domain.ErrGameNotFound)
		return
	}
	g, err := h.Games.GetGameByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if g == nil {
		respondError(c, domain.ErrGameNotFound)
		return
	}
	c.JSON(http.StatusOK, g)
}
