package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wholesale-catalog/internal/app"
	"wholesale-catalog/internal/config"
	"wholesale-catalog/internal/httpserver"
	"wholesale-catalog/internal/logger"
)

func main() {
	cfg, err := config.FromEnv()
	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("component", "api").Logger()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load rules")
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, rules, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("init pipeline")
	}
	defer a.Close()

	checks := []httpserver.Check{{Name: "db", Ping: a.Pool.Ping}}
	if a.Redis != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Ping: a.Redis.Ping})
	}

	srv, err := httpserver.New(cfg.HTTPAddr, &log, httpserver.Deps{
		RunSvc:      a.Runs,
		ProductSvc:  a.Products,
		CategorySvc: a.Categories,
		Checks:      checks,
		FeedDir:     cfg.Feed.Dir,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("server stopped")
	}
}
