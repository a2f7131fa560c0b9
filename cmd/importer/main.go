package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wholesale-catalog/internal/app"
	"wholesale-catalog/internal/config"
	"wholesale-catalog/internal/feed"
	"wholesale-catalog/internal/logger"
	"wholesale-catalog/internal/service/importrun"
)

func main() {
	var (
		filePath  string
		sourceKey string
		format    string
	)
	flag.StringVar(&filePath, "file", "", "Path to the supplier feed (XML or CSV)")
	flag.StringVar(&sourceKey, "source", "default", "Key of the supplier the feed belongs to")
	flag.StringVar(&format, "format", "auto", "Feed format: auto, xml or csv")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	feedFormat, err := feed.ParseFormat(format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("component", "importer").Logger()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load rules")
	}

	// Interrupts stop scheduling new products; caches stay valid for a re-run.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, rules, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("init pipeline")
	}

	start := time.Now()
	run, err := a.Runs.Run(ctx, importrun.Request{Path: filePath, SourceKey: sourceKey, Format: feedFormat})
	a.Close()
	if run != nil && run.Summary != nil {
		out, _ := json.MarshalIndent(run.Summary, "", "  ")
		fmt.Println(string(out))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	fmt.Printf("Run %s finished in %s\n", run.ID, time.Since(start).Truncate(time.Millisecond))
}
