package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the planner and its front-ends.
type Config struct {
	TelegramToken    string
	TelegramChatID   int64
	DatabaseURL      string
	ReminderInterval time.Duration
	Location         *time.Location
	GeminiAPIKey     string
	GeminiModel      string
}

// TelegramEnabled reports whether a bot token was configured.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads configuration from environment variables and, when path is set, a config
// file. Environment variables win over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("database_url", "mentalist.db")
	v.SetDefault("reminder_interval_seconds", 30)
	v.SetDefault("timezone", "Local")
	v.SetDefault("gemini_model", "gemini-3-flash-preview")

	for _, key := range []string{
		"telegram_token", "telegram_chat_id", "database_url", "reminder_interval_seconds",
		"timezone", "gemini_api_key", "gemini_model",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	// GEMINI_API_KEY may also be provided as API_KEY.
	if err := v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind gemini_api_key: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := Config{
		TelegramToken: strings.TrimSpace(v.GetString("telegram_token")),
		DatabaseURL:   strings.TrimSpace(v.GetString("database_url")),
		GeminiAPIKey:  strings.TrimSpace(v.GetString("gemini_api_key")),
		GeminiModel:   strings.TrimSpace(v.GetString("gemini_model")),
	}

	if raw := strings.TrimSpace(v.GetString("telegram_chat_id")); raw != "" {
		id := v.GetInt64("telegram_chat_id")
		if id == 0 {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID %q is not a chat id", raw)
		}
		cfg.TelegramChatID = id
	}

	seconds := v.GetInt("reminder_interval_seconds")
	if seconds <= 0 {
		return cfg, fmt.Errorf("REMINDER_INTERVAL_SECONDS must be positive, got %d", seconds)
	}
	cfg.ReminderInterval = time.Duration(seconds) * time.Second

	loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("timezone")))
	if err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "mentalist.db"
	}

	return cfg, nil
}
