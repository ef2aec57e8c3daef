package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	OpenAIAPIKey  string
	TelegramToken string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	OpenAIBaseURL string
	TextModel     string
	ImageModel    string
	ImageSize     string

	MaxIterations  int
	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration
	WebAddr        string
}

// Load reads configuration from the environment. The OpenAI credential is the
// one hard requirement; the Telegram token is only checked by cmd/bot.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:       strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:          getEnvBool("DEBUG", false),
		PreferIPv4:     getEnvBool("PREFER_IPV4", true),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		TextModel:      strings.TrimSpace(getEnv("TEXT_MODEL", "gpt-4-turbo")),
		ImageModel:     strings.TrimSpace(getEnv("IMAGE_MODEL", "gpt-image-1")),
		ImageSize:      strings.TrimSpace(getEnv("IMAGE_SIZE", "1024x1024")),
		MaxIterations:  getEnvInt("MAX_ITERATIONS", 3),
		MaxConcurrent:  getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 240)) * time.Second,
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 300)) * time.Second,
		WebAddr:        strings.TrimSpace(getEnv("WEB_ADDR", ":8080")),
	}

	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if cfg.OpenAIAPIKey == "" {
		return Config{}, errors.New("OPENAI_API_KEY is required")
	}

	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 1
	}
	if cfg.MaxIterations > 10 {
		cfg.MaxIterations = 10
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 240 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 300 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
