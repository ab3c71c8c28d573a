// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath     string
	LogLevel         string
	ScrapeInterval   time.Duration
	FetchTimeout     time.Duration
	KeywordDelay     time.Duration
	MaxAttempts      int
	NotifyChannel    string
	TelegramBotToken string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/watcher.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	scrapeInterval, err := secondsEnv("SCRAPE_INTERVAL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := secondsEnv("FETCH_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	keywordDelay, err := secondsEnv("KEYWORD_DELAY_SECONDS", 1)
	if err != nil {
		return nil, err
	}

	maxAttempts := 3
	if raw := os.Getenv("DELIVERY_MAX_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid DELIVERY_MAX_ATTEMPTS %q", raw)
		}
		maxAttempts = n
	}

	channel := os.Getenv("NOTIFY_CHANNEL")
	if channel == "" {
		channel = "log"
	}
	token := os.Getenv("TELEGRAM_BOT_TOKEN")

	switch channel {
	case "log":
	case "telegram":
		if token == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required for NOTIFY_CHANNEL=telegram")
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFY_CHANNEL %q", channel)
	}

	return &Config{
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		ScrapeInterval:   scrapeInterval,
		FetchTimeout:     fetchTimeout,
		KeywordDelay:     keywordDelay,
		MaxAttempts:      maxAttempts,
		NotifyChannel:    channel,
		TelegramBotToken: token,
	}, nil
}

func secondsEnv(key string, def int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return time.Duration(n) * time.Second, nil
}
