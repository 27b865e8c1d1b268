// Command statsjob recomputes the search statistics snapshot, either once or
// on a fixed interval, as a standalone worker sharing nothing with the
// serving process beyond the store.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/peopledeck/peopledeck/internal/config"
	"github.com/peopledeck/peopledeck/internal/service"
	"github.com/peopledeck/peopledeck/internal/store"
	"github.com/peopledeck/peopledeck/internal/utils"
)

func main() {
	var (
		configPath string
		once       bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&once, "once", false, "Run a single aggregation and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	kv, err := store.NewValkey(store.ValkeyConfig{
		Addr:         cfg.Store.Addr,
		Username:     cfg.Store.Username,
		Password:     cfg.Store.Password,
		DB:           cfg.Store.DB,
		DialTimeout:  cfg.Store.DialTimeout,
		ReadTimeout:  cfg.Store.ReadTimeout,
		WriteTimeout: cfg.Store.WriteTimeout,
		MaxRetries:   cfg.Store.MaxRetries,
		TLS:          cfg.Store.TLS,
	})
	if err != nil {
		logger.Error("store unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	defer kv.Close()

	statsSvc := service.NewStats(kv, cfg.Store.LogsKey, cfg.Store.StatsKey, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		if _, err := statsSvc.Recompute(ctx); err != nil {
			logger.Error("aggregation failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	logger.Info("statsjob running", slog.Duration("interval", cfg.Aggregation.Interval))
	ticker := time.NewTicker(cfg.Aggregation.Interval)
	defer ticker.Stop()

	for {
		if _, err := statsSvc.Recompute(ctx); err != nil {
			logger.Error("aggregation failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			logger.Info("statsjob stopped")
			return
		case <-ticker.C:
		}
	}
}
