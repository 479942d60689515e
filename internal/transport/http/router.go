package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/transport/http/middleware"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Analysis  *AnalysisHandler
	Games     *GamesHandler
	History   *HistoryHandler
	Watch     *WatchHandler
	WebSocket gin.HandlerFunc
}

type RouterOptions struct {
	AllowedOrigins []string
	RequireAuth    bool
}

func NewRouter(h Handlers, opts RouterOptions, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(logger.With().Str("component", "http").Logger()), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	router.GET("/healthz", h.Health.Health)
	router.POST("/api/auth/token", h.Auth.IssueToken)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(opts.RequireAuth))
	{
		protected.POST("/bestmove", h.Analysis.BestMove)
		protected.POST("/analyze/batch", h.Analysis.AnalyzeBatch)
		protected.GET("/analyses", h.Analysis.ListAnalyses)

		protected.POST("/games", h.Games.CreateGame)
		protected.GET("/games/live", h.Watch.GetLiveGames)
		protected.GET("/games/history", h.History.GetHistory)
		protected.GET("/games/history/:id", h.History.GetGameDetails)
		protected.GET("/games/:id", h.Games.GetGame)
		protected.DELETE("/games/:id", h.Games.DeleteGame)
		protected.POST("/games/:id/moves", h.Games.PlayMove)
	}

	// auth for the socket happens in its init message
	if h.WebSocket != nil {
		router.GET("/ws", h.WebSocket)
	}

	return router
}
