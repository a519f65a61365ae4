// Package scheduler runs background jobs over asynq: the periodic sheet sync
// and its worker. Redis doubles as both the job broker and the lead store.
package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"leadsync_backend/internal/leads/service"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// SheetSyncer is the slice of the orchestrator the worker needs.
type SheetSyncer interface {
	SyncFromSheet(ctx context.Context, trigger string) (service.SyncResult, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	syncer SheetSyncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, syncer SheetSyncer, log *logger.Logger) (*Worker, error) {
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
		server: server,
		mux:    mux,
		syncer: syncer,
		log:    log,
	}

	mux.HandleFunc(TaskSheetSync, w.handleSheetSync)

	return w, nil
}

func (w *Worker) handleSheetSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSheetSyncPayload(task)
	if err != nil {
		return err
	}

	trigger := payload.Trigger
	if trigger == "" {
		trigger = "scheduled"
	}

	// Sync outcome logging lives in the orchestrator; a returned error here
	// lets asynq apply its retry policy.
	_, err = w.syncer.SyncFromSheet(ctx, trigger)
	return err
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

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
