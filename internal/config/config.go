package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	FrontendURL    string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	RedisURL      string
	RedisPassword string
	CacheTTL      time.Duration

	JWTSecret   string
	RequireAuth bool
	TokenTTL    time.Duration

	SearchTimeout     time.Duration
	SearchParallelism int
	MaxSearchDepth    int
	DepthEasy         int
	DepthMedium       int
	DepthHard         int

	LogLevel  string
	LogPretty bool

	SessionIdle     time.Duration
	CleanupInterval time.Duration
	AnalysisMaxAge  time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")

	// Frontend URL first, then any extra CSV origins
	allowedOrigins := []string{frontendURL}
	if extras := GetEnv("ALLOWED_ORIGINS", ""); extras != "" {
		for _, origin := range strings.Split(extras, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" && trimmed != frontendURL {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	AppConfig = &Config{
		Port:           GetEnv("PORT", "8080"),
		AllowedOrigins: allowedOrigins,
		FrontendURL:    frontendURL,

		DatabaseURL:          GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", "")),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisURL:      GetEnv("REDIS_URL", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		CacheTTL:      GetEnvAsDuration("CACHE_TTL_MINUTES", 60, time.Minute),

		JWTSecret:   GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		RequireAuth: GetEnvAsBool("REQUIRE_AUTH", false),
		TokenTTL:    GetEnvAsDuration("TOKEN_TTL_MINUTES", 60*24, time.Minute),

		SearchTimeout:     GetEnvAsDuration("SEARCH_TIMEOUT_SECONDS", 10, time.Second),
		SearchParallelism: GetEnvAsInt("SEARCH_PARALLELISM", 4),
		MaxSearchDepth:    GetEnvAsInt("MAX_SEARCH_DEPTH", 12),
		DepthEasy:         GetEnvAsInt("DEPTH_EASY", 6),
		DepthMedium:       GetEnvAsInt("DEPTH_MEDIUM", 8),
		DepthHard:         GetEnvAsInt("DEPTH_HARD", 9),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogPretty: GetEnvAsBool("LOG_PRETTY", false),

		SessionIdle:     GetEnvAsDuration("SESSION_IDLE_HOURS", 1, time.Hour),
		CleanupInterval: GetEnvAsDuration("CLEANUP_INTERVAL_MINUTES", 60, time.Minute),
		AnalysisMaxAge:  GetEnvAsDuration("ANALYSIS_MAX_AGE_DAYS", 30, 24*time.Hour),
	}

	return AppConfig
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).Msg("invalid boolean, using default")
		return defaultValue
	}
	return value
}

// GetEnvAsDuration reads an integer count of unit.
func GetEnvAsDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(GetEnvAsInt(key, defaultValue)) * unit
}
