// Package config loads bot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Telegram TelegramConfig
	Quiz     QuizConfig
	Redis    RedisConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token       string        `env:"TELEGRAM_BOT_TOKEN"`
	Debug       bool          `env:"TELEGRAM_DEBUG" envDefault:"false"`
	PollTimeout time.Duration `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"60s"`
}

// QuizConfig holds game settings.
type QuizConfig struct {
	AdminID          int64  `env:"QUIZ_ADMIN_ID"`
	DBPath           string `env:"QUIZ_DB_PATH" envDefault:"quiz_bot.db"`
	QuestionsFile    string `env:"QUIZ_QUESTIONS_FILE"`
	LeaderboardLimit int    `env:"QUIZ_LEADERBOARD_LIMIT" envDefault:"10"`
}

// RedisConfig enables persisted active questions when Addr is set.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or out-of-range settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Telegram.PollTimeout < time.Second {
		errs = append(errs, errors.New("TELEGRAM_POLL_TIMEOUT must be at least 1s"))
	}
	if c.Quiz.AdminID <= 0 {
		errs = append(errs, errors.New("QUIZ_ADMIN_ID must be a positive user id"))
	}
	if c.Quiz.DBPath == "" {
		errs = append(errs, errors.New("QUIZ_DB_PATH is required"))
	}
	if c.Quiz.LeaderboardLimit <= 0 {
		errs = append(errs, errors.New("QUIZ_LEADERBOARD_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}
