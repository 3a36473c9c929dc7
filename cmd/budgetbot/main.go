package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbot/internal/cache"
	"budgetbot/internal/cli"
	apphttp "budgetbot/internal/http"
	applog "budgetbot/internal/log"
	"budgetbot/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()

	logger, closeLog, err := cli.SetupLogger(cfg, applog.ComponentApp)
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := cli.SignalContext()
	defer stop()

	rt, err := cli.BuildRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize runtime", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	limiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute)

	caches := cache.NewManager()
	caches.Register(rt.Engine.Sessions())
	caches.Register(limiter)
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Engine:  rt.Engine,
		Plans:   rt.Plans,
		Store:   rt.Backend.Store,
		Budget:  rt.Budget,
		Logger:  logger,
		Limiter: limiter,
		Backend: cfg.DataBackend,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetbot server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", rt.Backend.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
