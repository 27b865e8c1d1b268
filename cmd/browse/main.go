// Command browse is a terminal front end for the directory: it pages users
// in from the upstream API, applies the same accumulation and search
// behaviour the service packages implement, and records the search in the
// shared event stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/peopledeck/peopledeck/internal/browse"
	"github.com/peopledeck/peopledeck/internal/client"
	"github.com/peopledeck/peopledeck/internal/config"
	"github.com/peopledeck/peopledeck/internal/service"
	"github.com/peopledeck/peopledeck/internal/store"
	"github.com/peopledeck/peopledeck/internal/utils"
)

func main() {
	var (
		configPath string
		natCSV     string
		pages      int
		term       string
		savePrefs  bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&natCSV, "nat", "", "Comma-separated nationality filters (empty uses saved preferences)")
	flag.IntVar(&pages, "pages", 2, "Number of pages to load")
	flag.StringVar(&term, "search", "", "Filter the accumulated users by name substring")
	flag.BoolVar(&savePrefs, "save-prefs", false, "Persist the nationality selection for future runs")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
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

	fetcher, err := client.New(client.Options{
		BaseURL:       cfg.Upstream.BaseURL,
		Seed:          cfg.Upstream.Seed,
		Timeout:       cfg.Upstream.Timeout,
		CacheTTL:      cfg.Upstream.CacheTTL,
		CacheCapacity: cfg.Upstream.CacheCapacity,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create fetch client", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	prefs := browse.NewPrefs(kv, cfg.Store.PrefsKey)

	nats := splitCSV(natCSV)
	if len(nats) == 0 {
		if nats, err = prefs.Load(ctx); err != nil {
			logger.Warn("could not load saved preferences", slog.Any("error", err))
		}
	} else if savePrefs {
		if err := prefs.Save(ctx, nats); err != nil {
			logger.Warn("could not save preferences", slog.Any("error", err))
		}
	}

	session := browse.NewSession(fetcher, cfg.Upstream.PageSize, cfg.Upstream.MaxUsers, logger)
	session.SetNationalities(nats)

	for i := 0; i < pages && session.HasMore(); i++ {
		if err := session.LoadMore(ctx); err != nil {
			logger.Warn("load failed, retrying once", slog.Any("error", err))
			if err := session.Retry(ctx); err != nil {
				logger.Error("retry failed", slog.Any("error", err))
				os.Exit(1)
			}
		}
	}

	users := session.Users()
	if term != "" {
		start := time.Now()
		users = session.Search(term)
		elapsed := time.Since(start)

		searchLog := service.NewSearchLog(kv, cfg.Store.LogsKey, logger)
		if err := searchLog.Record(ctx, term, float64(elapsed.Milliseconds())); err != nil {
			logger.Warn("search not logged", slog.Any("error", err))
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tNAT")
	for _, u := range users {
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", u.Name.First, u.Name.Last, u.Email, u.Nationality)
	}
	_ = w.Flush()
	fmt.Printf("%d of %d accumulated users shown\n", len(users), session.Len())
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
