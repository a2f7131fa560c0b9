package main

import (
	"context"
	"flag"

	"wholesale-catalog/internal/config"
	"wholesale-catalog/internal/db"
	"wholesale-catalog/internal/logger"
	"wholesale-catalog/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "Roll back every migration instead of applying them")
	flag.Parse()

	cfg, err := config.FromEnv()
	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("component", "migrate").Logger()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down {
		if err := migrate.Down(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("roll back migrations")
		}
		log.Info().Msg("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}
	version, dirty, ok, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("read schema version")
	}
	if ok {
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
	}
}
