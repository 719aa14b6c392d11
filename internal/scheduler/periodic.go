package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"gids_backend/platform/config"
	"gids_backend/platform/logger"
)

// Periodic registers the recurring sweep with asynq's scheduler, which
// enqueues it at the configured interval.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
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

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	task, err := NewAssignmentsSweepTask(AssignmentsSweepPayload{})
	if err != nil {
		return nil, err
	}

	spec := fmt.Sprintf("@every %s", cfg.GetSweepInterval())
	if _, err := scheduler.Register(spec, task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register sweep task: %w", err)
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()

	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}
