package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the sheet sync task on a fixed interval. A zero interval
// disables it.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	interval := cfg.GetSheetSyncInterval()
	if interval <= 0 {
		return nil, nil
	}

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

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	task, err := NewSheetSyncTask(SheetSyncPayload{Trigger: "scheduled"})
	if err != nil {
		return nil, err
	}

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := sched.Register(spec, task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register sheet sync: %w", err)
	}

	return &Periodic{scheduler: sched, log: log}, nil
}

// Run blocks until the context is canceled.
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
