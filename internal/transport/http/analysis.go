package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/analysis"
)

const maxBatchSize = 32

// positionRequest describes a board as rows of text, top row first, using
// '.' for empty cells and 'A'/'B' for discs.
type positionRequest struct {
	Rules      string            `json:"rules"`
	Board      []string          `json:"board" binding:"required"`
	ToMove     string            `json:"to_move" binding:"required"`
	Depth      *int              `json:"depth"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

func (p positionRequest) toRequest() (analysis.Request, error) {
	rules, err := domain.RulesByName(p.Rules)
	if err != nil {
		return analysis.Request{}, err
	}
	toMove, err := domain.ParseSide(p.ToMove)
	if err != nil {
		return analysis.Request{}, err
	}
	board, err := domain.ParseBoard(rules, strings.Join(p.Board, "\n"), toMove)
	if err != nil {
		return analysis.Request{}, err
	}

	req := analysis.Request{
		Rules:      rules,
		Grid:       board.Grid(),
		ToMove:     toMove,
		Difficulty: p.Difficulty,
	}
	switch {
	case p.Depth != nil:
		req.Depth = *p.Depth
	case p.Difficulty == "":
		req.Difficulty = domain.DifficultyMedium
	}
	return req, nil
}

type AnalysisHandler struct {
	Service *analysis.Service
}

func NewAnalysisHandler(svc *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{Service: svc}
}

// BestMove answers POST /api/bestmove.
func (h *AnalysisHandler) BestMove(c *gin.Context) {
	var body positionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	req, err := body.toRequest()
	if err != nil {
		respondError(c, err)
		return
	}

	a, err := h.Service.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AnalyzeBatch answers POST /api/analyze/batch.
func (h *AnalysisHandler) AnalyzeBatch(c *gin.Context) {
	var body struct {
		Positions []positionRequest `json:"positions" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	if len(body.Positions) > maxBatchSize {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d positions per batch", maxBatchSize)})
		return
	}

	reqs := make([]analysis.Request, len(body.Positions))
	for i, p := range body.Positions {
		req, err := p.toRequest()
		if err != nil {
			respondError(c, fmt.Errorf("position %d: %w", i, err))
			return
		}
		reqs[i] = req
	}

	results, err := h.Service.AnalyzeBatch(c.Request.Context(), reqs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListAnalyses answers GET /api/analyses.
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.Service.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
