// Command interest runs one monthly interest batch and exits. It is meant
// for deployments that schedule accrual with cron rather than the in-process
// scheduler.
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

	"piggybank/internal/config"
	"piggybank/internal/database"
	"piggybank/internal/ledger"
	"piggybank/internal/logger"
	"piggybank/internal/scheduler"
	"piggybank/internal/server"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Interest batch error: %v", err)
	}
}

func run() error {
	all := flag.Bool("all", false, "accrue every active account, even if it already accrued this month")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dbConfig, err := database.NewConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	rdb := database.NewRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}
	svc := server.NewServices(dbManager.DB(), rdb)

	var opts ledger.BatchOptions
	if !*all {
		cycle := scheduler.CycleStart(time.Now())
		opts.NotAccruedSince = &cycle
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := svc.Ledger.RunInterestBatch(ctx, opts)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d account(s) failed", report.Failed)
	}
	return nil
}
