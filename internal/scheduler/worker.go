package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	matchingservice "gids_backend/internal/matching/service"
	"gids_backend/platform/config"
	"gids_backend/platform/logger"
)

// Worker consumes scheduler tasks. The only task today is the expiry sweep
// for stale assignment offers.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	matching *matchingservice.Service
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, matching *matchingservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		matching: matching,
		log:      log,
	}

	mux.HandleFunc(TaskAssignmentsSweep, w.handleAssignmentsSweep)

	return w, nil
}

func (w *Worker) handleAssignmentsSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAssignmentsSweepPayload(task)
	if err != nil {
		return err
	}

	expired, err := w.matching.ExpireStale(ctx, 0)
	if err != nil {
		return err
	}

	w.log.Info("assignment sweep finished",
		"requested_at", payload.RequestedAt,
		"expired", expired,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
