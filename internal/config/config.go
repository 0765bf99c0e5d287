// internal/config/config.go

// Package config reads the service configuration from environment variables.
// A .env file is honored via godotenv autoload in the server entrypoint.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/arcadehall/pong-service/internal/game"
)

// Config is the full service configuration.
type Config struct {
	Addr string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// RedisAddr enables the match-history feed when non-empty.
	RedisAddr    string
	RedisDB      int
	HistoryQueue string

	Game game.Settings
}

// Load builds a Config from the environment, falling back to defaults for
// anything unset. Win threshold and tick cadence are parameters, never
// hardcoded constants.
func Load() Config {
	g := game.DefaultSettings()
	g.WinScore = getEnvInt("PONG_WIN_SCORE", g.WinScore)
	g.TickRate = getEnvInt("PONG_TICK_RATE", g.TickRate)
	g.BallSpeed = getEnvFloat("PONG_BALL_SPEED", g.BallSpeed)
	g.PaddleSpeed = getEnvFloat("PONG_PADDLE_SPEED", g.PaddleSpeed)
	g.WaitTTL = getEnvDuration("PONG_WAIT_TTL", 0)

	addr := getEnv("PONG_ADDR", "")
	if addr == "" {
		addr = ":" + getEnv("PORT", "8080")
	}

	return Config{
		Addr:          addr,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		HistoryQueue:  getEnv("HISTORY_QUEUE_NAME", ""),
		Game:          g,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return v
}
