package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polzovatel/uibdd/features"
	"github.com/polzovatel/uibdd/internal/config"
	"github.com/polzovatel/uibdd/internal/lifecycle"
	"github.com/polzovatel/uibdd/internal/logger"
	"github.com/polzovatel/uibdd/internal/pages"
	"github.com/polzovatel/uibdd/internal/steps"
)

type cliOptions struct {
	envFile  string
	features string
	tags     string
	format   string
	report   string
	strict   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()
	log.Logger = logger.New(os.Stderr, false)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		log.Error().Err(err).Msg("config")
		return 2
	}
	if opts.report != "" {
		cfg.ReportPath = opts.report
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coord := lifecycle.New(cfg, log.With().Str("comp", "lifecycle").Logger(), lifecycle.Launch)
	if err := coord.Start(ctx); err != nil {
		log.Error().Err(err).Msg("browser init")
		return 1
	}
	defer func() {
		if err := coord.Stop(); err != nil {
			log.Error().Err(err).Msg("browser close")
		}
	}()

	if err := os.MkdirAll(filepath.Dir(cfg.ReportPath), 0o755); err != nil {
		log.Error().Err(err).Msg("report dir")
		return 1
	}

	godogOpts := &godog.Options{
		Format:         fmt.Sprintf("%s,cucumber:%s", opts.format, cfg.ReportPath),
		Tags:           opts.tags,
		Strict:         opts.strict,
		Concurrency:    1,
		DefaultContext: ctx,
		Output:         os.Stdout,
	}
	if opts.features != "" {
		godogOpts.Paths = []string{opts.features}
	} else {
		godogOpts.FS = features.FS
		godogOpts.Paths = []string{"."}
	}

	suite := godog.TestSuite{
		Name: "uibdd",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			coord.Register(sc)
			steps.Register(sc, steps.Options{BaseURL: cfg.BaseURL, DownloadURL: pages.DownloadPageURL})
		},
		Options: godogOpts,
	}
	status := suite.Run()
	log.Info().Int("status", status).Str("report", cfg.ReportPath).Msg("suite finished")
	return status
}

func parseFlags() cliOptions {
	env := flag.String("env", ".env", "Path to the .env file")
	feats := flag.String("features", "", "Feature file or directory (embedded features when empty)")
	tags := flag.String("tags", "", "Tag expression selecting scenarios, e.g. @search")
	format := flag.String("format", "pretty", "Console formatter: pretty, progress, junit, cucumber")
	report := flag.String("report", "", "Cucumber JSON report path (REPORT_PATH when empty)")
	strict := flag.Bool("strict", true, "Fail on pending or undefined steps")
	flag.Parse()
	return cliOptions{
		envFile:  strings.TrimSpace(*env),
		features: strings.TrimSpace(*feats),
		tags:     strings.TrimSpace(*tags),
		format:   strings.TrimSpace(*format),
		report:   strings.TrimSpace(*report),
		strict:   *strict,
	}
}
