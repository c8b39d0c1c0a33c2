package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. PARTY_PORT
const Prefix = "PARTY"

// Config is the server configuration read from the environment
type Config struct {
	Port              int           `envconfig:"PORT" default:"8080"`
	StorageType       string        `envconfig:"STORAGE_TYPE" default:"memory"`
	RedisURL          string        `envconfig:"REDIS_URL"`
	TriviaAPIURL      string        `envconfig:"TRIVIA_API_URL" default:"https://opentdb.com"`
	TriviaTimeout     time.Duration `envconfig:"TRIVIA_TIMEOUT" default:"5s"`
	QuestionTimeLimit int           `envconfig:"QUESTION_TIME_LIMIT" default:"30"`
	ResultsDelay      time.Duration `envconfig:"RESULTS_DELAY" default:"5s"`
	RoomRetention     time.Duration `envconfig:"ROOM_RETENTION" default:"1h"`
	CleanupInterval   time.Duration `envconfig:"CLEANUP_INTERVAL" default:"5m"`
	ClampTimeToServer bool          `envconfig:"CLAMP_TIME_TO_SERVER" default:"true"`
	QuestionBankPath  string        `envconfig:"QUESTION_BANK_PATH"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load reads the optional .env file at dotenvPath and then the environment
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := LoadDotEnv(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("%s_REDIS_URL is required when %s_STORAGE_TYPE=redis", Prefix, Prefix)
		}
	default:
		return fmt.Errorf("%s_STORAGE_TYPE must be memory or redis, got %q", Prefix, c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%s_PORT out of range: %d", Prefix, c.Port)
	}
	if c.QuestionTimeLimit <= 0 {
		return fmt.Errorf("%s_QUESTION_TIME_LIMIT must be positive", Prefix)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s_LOG_LEVEL unknown: %q", Prefix, s)
	}
}
