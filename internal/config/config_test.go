package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_PATH", "LOG_LEVEL", "SCRAPE_INTERVAL_SECONDS",
		"FETCH_TIMEOUT_SECONDS", "KEYWORD_DELAY_SECONDS",
		"DELIVERY_MAX_ATTEMPTS", "NOTIFY_CHANNEL", "TELEGRAM_BOT_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		DatabasePath:   "./data/watcher.db",
		LogLevel:       "info",
		ScrapeInterval: 300 * time.Second,
		FetchTimeout:   15 * time.Second,
		KeywordDelay:   1 * time.Second,
		MaxAttempts:    3,
		NotifyChannel:  "log",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCRAPE_INTERVAL_SECONDS", "60")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("KEYWORD_DELAY_SECONDS", "0")
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "5")
	t.Setenv("NOTIFY_CHANNEL", "telegram")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		DatabasePath:     "/tmp/test.db",
		LogLevel:         "debug",
		ScrapeInterval:   60 * time.Second,
		FetchTimeout:     5 * time.Second,
		KeywordDelay:     0,
		MaxAttempts:      5,
		NotifyChannel:    "telegram",
		TelegramBotToken: "123:abc",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "non-numeric interval",
			env:  map[string]string{"SCRAPE_INTERVAL_SECONDS": "soon"},
		},
		{
			name: "negative timeout",
			env:  map[string]string{"FETCH_TIMEOUT_SECONDS": "-1"},
		},
		{
			name: "zero max attempts",
			env:  map[string]string{"DELIVERY_MAX_ATTEMPTS": "0"},
		},
		{
			name: "unknown channel",
			env:  map[string]string{"NOTIFY_CHANNEL": "carrier-pigeon"},
		},
		{
			name: "telegram channel without token",
			env:  map[string]string{"NOTIFY_CHANNEL": "telegram"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
