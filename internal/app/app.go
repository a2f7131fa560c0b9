// Package app wires the import pipeline from configuration for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"wholesale-catalog/internal/cache"
	"wholesale-catalog/internal/config"
	"wholesale-catalog/internal/db"
	"wholesale-catalog/internal/feed"
	"wholesale-catalog/internal/imaging"
	"wholesale-catalog/internal/importer"
	"wholesale-catalog/internal/logger"
	categoryrepo "wholesale-catalog/internal/repository/category"
	runrepo "wholesale-catalog/internal/repository/importrun"
	productrepo "wholesale-catalog/internal/repository/product"
	sourcerepo "wholesale-catalog/internal/repository/source"
	"wholesale-catalog/internal/retry"
	categorysvc "wholesale-catalog/internal/service/category"
	runsvc "wholesale-catalog/internal/service/importrun"
	productsvc "wholesale-catalog/internal/service/product"
	"wholesale-catalog/internal/variation"
)

type App struct {
	Pool       *pgxpool.Pool
	Redis      *cache.RedisClient
	Runs       *runsvc.Coordinator
	Products   *productsvc.Service
	Categories *categorysvc.Service
	log        *zerolog.Logger
	closers    []func() error
}

// Build connects to Postgres, and to Redis when configured, and assembles
// the pipeline. Close releases everything Build opened.
func Build(ctx context.Context, cfg config.Config, rules config.Rules, log *zerolog.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{log: log}

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	var ledger cache.Ledger = cache.NewMemoryLedger()
	if cfg.Redis.Addr != "" {
		r, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = r
		a.closers = append(a.closers, r.Close)
		ledger = cache.NewRedisLedger(r, cfg.LedgerTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set; unchanged products are re-sinked on every run")
	}

	normalizer, err := a.images(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	detector, err := variation.NewDetector(rules.Variation.Vocabulary, rules.Variation.Strategies)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("variation rules: %w", err)
	}

	a.Products = productsvc.New(productrepo.NewPostgres(pool, log))
	a.Categories = categorysvc.New(categoryrepo.NewPostgres(pool))

	imp := importer.New(productrepo.NewPostgres(pool, log), detector, rules.Pricing, normalizer, importer.Options{
		Workers:  cfg.ProductWorkers,
		Category: rules.CategoryOptions(),
		Ledger:   ledger,
	}, log)
	a.Runs = runsvc.New(runrepo.NewPostgres(pool), sourcerepo.NewPostgres(pool), a.Categories, imp, feed.Options{
		Encoding:  cfg.Feed.Encoding,
		Delimiter: cfg.Feed.Delimiter,
	}, log)
	return a, nil
}

func (a *App) images(cfg config.Config) (*imaging.Normalizer, error) {
	disk, err := imaging.NewDiskCache(cfg.Images.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	index, err := imaging.OpenBadgerIndex(cfg.Images.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("image index: %w", err)
	}
	a.closers = append(a.closers, index.Close)

	var publisher imaging.Publisher
	switch {
	case cfg.S3.Bucket != "":
		s3, err := imaging.NewS3Publisher(imaging.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		publisher = s3
	case cfg.Images.PublicBaseURL != "":
		publisher = imaging.NewBaseURLPublisher(cfg.Images.PublicBaseURL)
	}

	fetcher := imaging.NewHTTPFetcher(cfg.Images.FetchTimeout, cfg.Images.RatePerSecond)
	return imaging.NewNormalizer(fetcher, disk, imaging.Options{
		Workers:   cfg.Images.Workers,
		Policy:    retry.Policy{Retries: cfg.Images.Retries, Backoff: cfg.Images.Backoff},
		Index:     index,
		Publisher: publisher,
	}, a.log), nil
}

// Close waits for background runs, then releases connections in reverse
// order of opening.
func (a *App) Close() {
	if a.Runs != nil {
		a.Runs.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}
