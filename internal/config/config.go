package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/perkup.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL enables the leaderboard response cache when set.
	RedisURL string `env:"REDIS_URL"`

	// TelegramBotToken signs Mini App initData; auth endpoints reject
	// everything when it is empty.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// AdminEmail/AdminPassword bootstrap the admin account on startup.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Loyalty policy knobs. Defaults match the production economy.
	CheckinBasePoints int `env:"CHECKIN_BASE_POINTS" envDefault:"1"`
	CheckinBaseXP     int `env:"CHECKIN_BASE_XP" envDefault:"10"`
	LeaderboardLimit  int `env:"LEADERBOARD_LIMIT" envDefault:"100"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
