package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iamasit07/connect4-engine/internal/config"
	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/repository/postgres"
	"github.com/iamasit07/connect4-engine/internal/repository/redis"
	"github.com/iamasit07/connect4-engine/internal/service/analysis"
	"github.com/iamasit07/connect4-engine/internal/service/bot"
	"github.com/iamasit07/connect4-engine/internal/service/cleanup"
	"github.com/iamasit07/connect4-engine/internal/service/game"
	transportHttp "github.com/iamasit07/connect4-engine/internal/transport/http"
	"github.com/iamasit07/connect4-engine/internal/transport/websocket"
)

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Info().Msg("No .env file found")
		}
	}

	cfg := config.LoadConfig()
	setupLogger(cfg)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence is optional: without DATABASE_URL nothing is stored.
	var (
		db           *sql.DB
		gameRepo     *postgres.GameRepo
		gameStore    game.GameRepository
		analysisRepo analysis.AnalysisRepository
		history      transportHttp.GameHistoryReader
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		gameRepo = postgres.NewGameRepo(db)
		gameStore = gameRepo
		history = gameRepo
		analysisRepo = postgres.NewAnalysisRepo(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, games and analyses will not be persisted")
	}

	var cache analysis.Cache
	redisClient := redis.Connect(ctx, cfg.RedisURL, cfg.RedisPassword)
	if redisClient != nil {
		defer redisClient.Close()
		cache = redis.NewRedisCache(redisClient, "c4:")
	}

	presets := bot.Presets{
		domain.DifficultyEasy:   cfg.DepthEasy,
		domain.DifficultyMedium: cfg.DepthMedium,
		domain.DifficultyHard:   cfg.DepthHard,
	}
	if err := presets.Validate(cfg.MaxSearchDepth); err != nil {
		log.Fatal().Err(err).Msg("Invalid difficulty depth presets")
	}
	engine := bot.NewEngine(bot.DefaultWeights, log.Logger)

	analysisService := analysis.NewService(engine, analysisRepo, cache, analysis.Options{
		Presets:     presets,
		MaxDepth:    cfg.MaxSearchDepth,
		Timeout:     cfg.SearchTimeout,
		CacheTTL:    cfg.CacheTTL,
		Parallelism: cfg.SearchParallelism,
	}, log.Logger)
	sessionManager := game.NewSessionManager(engine, presets, gameStore, cfg.SearchTimeout, log.Logger)

	cleanupWorker := cleanup.NewWorker(sessionManager, analysisService, cfg.CleanupInterval, cfg.SessionIdle, cfg.AnalysisMaxAge, log.Logger)
	go cleanupWorker.Start(ctx)

	checks := map[string]transportHttp.Check{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, redisClient) }
	}

	wsHandler := websocket.NewHandler(websocket.NewConnectionManager(), sessionManager, cfg.RequireAuth, cfg.AllowedOrigins, log.Logger)
	router := transportHttp.NewRouter(transportHttp.Handlers{
		Health:    transportHttp.NewHealthHandler(checks),
		Auth:      transportHttp.NewAuthHandler(),
		Analysis:  transportHttp.NewAnalysisHandler(analysisService),
		Games:     transportHttp.NewGamesHandler(sessionManager),
		History:   transportHttp.NewHistoryHandler(history),
		Watch:     transportHttp.NewWatchHandler(sessionManager),
		WebSocket: wsHandler.HandleWebSocket,
	}, transportHttp.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RequireAuth:    cfg.RequireAuth,
	}, log.Logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// let in-flight saves reach the database before it is closed
	sessionManager.Wait()
	analysisService.Wait()

	log.Info().Msg("Server exited gracefully")
}

func pingRedis(ctx context.Context, client *goredis.Client) error {
	return client.Ping(ctx).Err()
}
