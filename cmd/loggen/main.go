// Command loggen seeds the event stream with synthetic search logs spread
// over the current day, for demos and load testing of the aggregation path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/peopledeck/peopledeck/internal/config"
	"github.com/peopledeck/peopledeck/internal/models"
	"github.com/peopledeck/peopledeck/internal/store"
	"github.com/peopledeck/peopledeck/internal/utils"
)

var queries = []string{
	"alice", "bob", "charlie", "david", "eve", "frank", "grace", "heidi",
	"ivan", "judy", "mallory", "oscar", "peggy", "trent", "victor",
	"walter", "zara", "nina", "oliver", "paul",
}

func main() {
	var (
		configPath string
		count      int
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.IntVar(&count, "count", 1000, "Number of synthetic search logs to generate")
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

	startOfDay := time.Now().Truncate(24 * time.Hour)
	entries := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		event := models.SearchEvent{
			Query:     queries[rand.Intn(len(queries))],
			Timestamp: startOfDay.Add(time.Duration(rand.Int63n(int64(24 * time.Hour)))).UTC().Format(time.RFC3339),
			Duration:  float64(50 + rand.Intn(1951)),
		}
		raw, err := json.Marshal(event)
		if err != nil {
			logger.Error("encode event", slog.Any("error", err))
			os.Exit(1)
		}
		entries = append(entries, raw)
	}

	if err := kv.RPush(context.Background(), cfg.Store.LogsKey, entries...); err != nil {
		logger.Error("append events", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("generated search logs", slog.Int("count", count))
}
