// Caracara - Counterfeit risk scoring for printer supply listings.
// Copyright (c) 2026 mercadoguard
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mercadoguard/caracara/internal/api"
	"github.com/mercadoguard/caracara/internal/artifact"
	"github.com/mercadoguard/caracara/internal/bus"
	"github.com/mercadoguard/caracara/internal/cache"
	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/pipeline"
	"github.com/mercadoguard/caracara/internal/report"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Optional .env for local runs; missing file is fine
	_ = godotenv.Load()

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("CARACARA_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg := domain.DefaultConfig()
	applyEnv(cfg)

	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(cfg, os.Args[2:])
	case "score":
		err = runScore(cfg, os.Args[2:])
	case "serve":
		err = runServe(cfg, os.Args[2:])
	case "version":
		fmt.Printf("caracara %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runTrain(cfg *domain.Config, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	input := fs.String("input", "", "listings CSV to train on (required)")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		return fmt.Errorf("-input is required")
	}

	slog.Info("starting caracara train",
		"version", Version,
		"input", *input,
		"store", cfg.Store.Driver,
	)

	store, err := artifact.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := pipeline.NewTrainer(cfg, store).Run(ctx, *input)
	if err != nil {
		return err
	}

	fmt.Println(result.Metrics.String())
	fmt.Printf("bundle: %s\n", result.BundleID)
	return nil
}

func runScore(cfg *domain.Config, args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	input := fs.String("input", "", "listings CSV to score (required)")
	output := fs.String("output", "relatorio_de_risco.csv", "report output path")
	bundleID := fs.String("bundle", "", "artifact bundle ID (default: latest)")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		return fmt.Errorf("-input is required")
	}

	slog.Info("starting caracara score",
		"version", Version,
		"input", *input,
		"output", *output,
		"store", cfg.Store.Driver,
		"eventbus", cfg.EventBus.Type,
	)

	store, err := artifact.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	defer store.Close()

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	defer busImpl.Close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := pipeline.NewScorer(cfg, store, busImpl).Run(ctx, *input, *output, *bundleID)
	if err != nil {
		return err
	}

	fmt.Printf("scored %d listings, %d alerts, report at %s\n",
		len(result.Rows), result.Alerts, result.ReportPath)
	return nil
}

func runServe(cfg *domain.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	reportPath := fs.String("report", "relatorio_de_risco.csv", "scored report to serve")
	fs.Parse(args)

	slog.Info("starting caracara serve",
		"version", Version,
		"report", *reportPath,
		"cache", cfg.Cache.Type,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer cacheImpl.Close()

	loader := func() ([]report.Row, error) {
		f, err := os.Open(*reportPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return report.Parse(f, cfg.Ingest.ReportSeparator)
	}

	srv := api.NewServer(cfg.Server, loader, cacheImpl, Version)

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	slog.Info("caracara viewer is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("caracara shutdown complete")
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	return ctx, cancel
}

// applyEnv overlays environment settings on the default configuration.
func applyEnv(cfg *domain.Config) {
	if v := os.Getenv("CARACARA_SEPARATOR"); v != "" {
		cfg.Ingest.Separator = v
	}
	if v := os.Getenv("CARACARA_REPORT_SEPARATOR"); v != "" {
		cfg.Ingest.ReportSeparator = v
	}
	if v := os.Getenv("CARACARA_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CARACARA_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("CARACARA_POSTGRES_HOST"); v != "" {
		cfg.Store.PostgresHost = v
	}
	if v := os.Getenv("CARACARA_POSTGRES_USER"); v != "" {
		cfg.Store.PostgresUser = v
	}
	if v := os.Getenv("CARACARA_POSTGRES_PASSWORD"); v != "" {
		cfg.Store.PostgresPassword = v
	}
	if v := os.Getenv("CARACARA_POSTGRES_DB"); v != "" {
		cfg.Store.PostgresDB = v
	}
	if v := os.Getenv("CARACARA_CACHE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("CARACARA_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("CARACARA_BUS"); v != "" {
		cfg.EventBus.Type = v
	}
	if v := os.Getenv("CARACARA_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("CARACARA_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CARACARA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CARACARA_ALERT_RISK_PCT"); v != "" {
		if pct, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.AlertRiskPct = pct
		}
	}
}

func printUsage() {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║              🦅 CARACARA                  ║")
	fmt.Println("  ║   Printer-supply listing risk scoring     ║")
	fmt.Println("  ║     Every listing earns its trust.        ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Println()
	fmt.Println("  Usage: caracara <command> [flags]")
	fmt.Println()
	fmt.Println("  Commands:")
	fmt.Println("    train  -input listings.csv              Train and save an artifact bundle")
	fmt.Println("    score  -input listings.csv [-output f]  Score listings and write the report")
	fmt.Println("    serve  [-report relatorio_de_risco.csv] Serve the report over HTTP")
	fmt.Println("    version                                 Print version information")
	fmt.Println()
	fmt.Println("  Serve endpoints:")
	fmt.Println("    GET /report   - Scored rows (classification, min_risk, max_risk filters)")
	fmt.Println("    GET /summary  - Aggregate figures")
	fmt.Println("    GET /health   - Health check")
	fmt.Println()
}
