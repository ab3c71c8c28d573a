package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/krw82/usedItem/internal/config"
	"github.com/krw82/usedItem/internal/fetcher"
	"github.com/krw82/usedItem/internal/model"
	"github.com/krw82/usedItem/internal/notify"
	"github.com/krw82/usedItem/internal/scheduler"
	"github.com/krw82/usedItem/internal/storage"
	"github.com/krw82/usedItem/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	deliverer, channel, err := newDeliverer(cfg, log)
	if err != nil {
		log.Error("create deliverer", "channel", cfg.NotifyChannel, "error", err)
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(store, deliverer, channel, log)
	dispatcher.SetMaxAttempts(cfg.MaxAttempts)

	f := fetcher.New(http.DefaultClient)
	f.SetTimeout(cfg.FetchTimeout)

	sched := scheduler.NewWithFetcher(store, strategy.DefaultRegistry(), f, dispatcher, log)
	sched.SetTickInterval(cfg.ScrapeInterval)
	sched.SetKeywordDelay(cfg.KeywordDelay)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting watcher", "interval", cfg.ScrapeInterval, "channel", cfg.NotifyChannel)

	sched.Run(ctx)

	log.Info("watcher stopped")
}

func newDeliverer(cfg *config.Config, log *slog.Logger) (notify.Deliverer, model.NotificationChannel, error) {
	if cfg.NotifyChannel == "telegram" {
		d, err := notify.NewTelegramDeliverer(cfg.TelegramBotToken)
		if err != nil {
			return nil, "", err
		}
		return d, model.ChannelTelegram, nil
	}
	return notify.NewLogDeliverer(log), model.ChannelLog, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
