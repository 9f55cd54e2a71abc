package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"catalogscout/internal/config"
	"catalogscout/internal/crawler"
	"catalogscout/internal/db"
	"catalogscout/internal/enrich"
	"catalogscout/internal/export"
	"catalogscout/internal/logging"
	"catalogscout/internal/observability"
	"catalogscout/internal/pipeline"
	"catalogscout/internal/repository"
)

// CATEGORY_URL=https://books.toscrape.com/catalogue/category/books/travel_2/index.html go run ./cmd/scraper
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	if err := run(cfg, logger); err != nil {
		logger.Error("scraper finished with errors", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	observability.Start(cfg.MetricsPort, registry, logger)

	fetcher := crawler.NewFetcher(crawler.NewHTTPClient(cfg.FetchTimeout), cfg.UserAgent)
	walker := crawler.NewWalker(fetcher, logger,
		crawler.WithItemDelay(cfg.ItemDelay),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithMetrics(metrics),
	)

	enrichOpts := []enrich.Option{enrich.WithModel(cfg.OpenAIModel), enrich.WithMetrics(metrics)}
	if cfg.RedisURL != "" {
		rdb, err := db.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("enrichment cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			enrichOpts = append(enrichOpts, enrich.WithCache(enrich.NewRedisCache(rdb, cfg.CacheTTL, logger)))
		}
	}
	var enricher *enrich.Enricher
	if cfg.EnrichmentEnabled() {
		enricher = enrich.New(enrich.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL), logger, enrichOpts...)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using local normalization only")
		enricher = enrich.New(nil, logger, enrichOpts...)
	}

	sinks := []pipeline.Sink{export.NewCSVSink(cfg.OutputCSV)}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect store: %w", err)
		}
		defer pool.Close()
		sinks = append(sinks, &repository.BookRepository{DB: pool})
	}

	driver := pipeline.NewDriver(walker, enricher, logger,
		pipeline.WithSinks(sinks...),
		pipeline.WithMaxRetries(cfg.EnrichMaxRetries),
		pipeline.WithEnrichDelay(cfg.EnrichDelay),
		pipeline.WithMetrics(metrics),
	)

	records, err := driver.Run(ctx, cfg.CategoryURL)
	logger.Info("scraper finished", zap.Int("records", len(records)), zap.String("csv", cfg.OutputCSV))
	return err
}
