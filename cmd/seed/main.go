package main

import (
	"context"

	"wholesale-catalog/internal/config"
	"wholesale-catalog/internal/db"
	"wholesale-catalog/internal/logger"
	categoryrepo "wholesale-catalog/internal/repository/category"
	"wholesale-catalog/internal/seed"
	categorysvc "wholesale-catalog/internal/service/category"
)

func main() {
	cfg, err := config.FromEnv()
	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("component", "seed").Logger()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load rules")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, categorysvc.New(categoryrepo.NewPostgres(pool)), rules.Taxonomy)
	if err != nil {
		log.Fatal().Err(err).Msg("seed taxonomy")
	}
	log.Info().Int("categories", n).Msg("seed applied")
}
