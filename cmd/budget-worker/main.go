package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"budgetbot/internal/amqp"
	"budgetbot/internal/cli"
	applog "budgetbot/internal/log"
	"budgetbot/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()

	logger, closeLog, err := cli.SetupLogger(cfg, applog.ComponentWorker)
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	logger.Info("Starting budget-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	audit := worker.NewAuditWorker(repo)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumePlanUpdates(gctx, audit.HandlePlanUpdated)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
