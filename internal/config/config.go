// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/sirupsen/logrus"
)

// Config holds every environment-driven setting for the server and historian.
type Config struct {
	Port string

	PostgresUser     string
	PostgresPassword string
	PGHost           string
	PGPort           string
	PGDatabase       string

	RedisAddr string
	RedisDB   int

	// SessionStore is "redis" or "memory".
	SessionStore string
	RoundTTL     time.Duration

	Rules       game.Rules
	StartingExp int64

	TokenExpire time.Duration

	HistorianQueue     string
	HistorianBatchSize int
	HistorianFlush     time.Duration

	LogLevel logrus.Level
}

// Load reads the configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PGHost:           getEnv("PG_HOST", "localhost"),
		PGPort:           getEnv("PG_PORT", "5432"),
		PGDatabase:       getEnv("PG_DATABASE", "blackjack"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		SessionStore: getEnv("SESSION_STORE", "redis"),
		RoundTTL:     getEnvDuration("ROUND_TTL", 24*time.Hour),

		Rules: game.Rules{
			NumDecks: getEnvInt("NUM_DECKS", game.DefaultNumDecks),
			MinBet:   int64(getEnvInt("MIN_BET", 1)),
			MaxBet:   int64(getEnvInt("MAX_BET", 0)),
		},
		StartingExp: int64(getEnvInt("STARTING_EXP", 1000)),

		TokenExpire: getEnvDuration("TOKEN_EXPIRE_TIME", 7*24*time.Hour),

		HistorianQueue:     getEnv("HISTORIAN_QUEUE_NAME", "blackjack_actions"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,

		LogLevel: level,
	}

	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("table rules: %w", err)
	}
	if cfg.SessionStore != "redis" && cfg.SessionStore != "memory" {
		return nil, fmt.Errorf("SESSION_STORE must be redis or memory, got %q", cfg.SessionStore)
	}
	if cfg.StartingExp < 0 {
		return nil, fmt.Errorf("STARTING_EXP must not be negative, got %d", cfg.StartingExp)
	}
	if cfg.HistorianBatchSize <= 0 {
		return nil, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize)
	}
	return cfg, nil
}

// PostgresURL builds the pgx connection string.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PGHost,
		c.PGPort,
		c.PGDatabase,
	)
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

// getEnvDuration accepts Go durations ("90s", "24h") or a bare number of seconds.
func getEnvDuration(key string, defVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defVal
}
