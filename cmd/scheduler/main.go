package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"gids_backend/internal/activity"
	"gids_backend/internal/events"
	matchingrepo "gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/scoring"
	matchingservice "gids_backend/internal/matching/service"
	"gids_backend/internal/scheduler"
	"gids_backend/platform/config"
	"gids_backend/platform/db"
	"gids_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "sweep_interval", cfg.GetSweepInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Sweep expiries belong on the lead timeline too.
	activity.NewModule(pool, log).RegisterHandlers(eventBus)

	weights, err := scoring.LoadWeights(cfg.GetMatchWeightsFile())
	if err != nil {
		log.Error("failed to load scoring weights", "error", err)
		panic("failed to load scoring weights: " + err.Error())
	}

	matchingSvc := matchingservice.New(matchingrepo.New(pool), eventBus, weights, cfg, log)

	worker, err := scheduler.NewWorker(cfg, matchingSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer client.Close()

	// Catch up right away instead of waiting out the first interval: offers
	// that went stale while the worker was down expire on startup.
	if err := client.EnqueueSweep(ctx); err != nil {
		log.Warn("failed to enqueue startup sweep", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		periodic.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler error", "error", err)
		panic("scheduler error: " + err.Error())
	}
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
