package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"go.uber.org/zap"
)

// Worker wraps the asynq server and the scheduler for periodic tasks
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *zap.Logger
}

// WorkerConfig collects what the worker process needs
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	PDF         PDFGenerator
	Housekeeper Housekeeper
	// ExpirySpec and CleanupSpec are cron expressions in UTC.
	ExpirySpec  string
	CleanupSpec string
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.ExpirySpec == "" {
		cfg.ExpirySpec = "0 * * * *"
	}
	if cfg.CleanupSpec == "" {
		cfg.CleanupSpec = "30 3 * * *"
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})

	mux := asynq.NewServeMux()
	mux.Use(observe(cfg.Logger, cfg.Metrics))
	mux.HandleFunc(TaskQuotationPDF, HandleQuotationPDF(cfg.PDF))
	mux.HandleFunc(TaskExpireQuotations, HandleExpireQuotations(cfg.Housekeeper))
	mux.HandleFunc(TaskCleanup, HandleCleanup(cfg.Housekeeper))

	scheduler := asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	for _, entry := range []struct{ spec, taskType string }{
		{cfg.ExpirySpec, TaskExpireQuotations},
		{cfg.CleanupSpec, TaskCleanup},
	} {
		if _, err := scheduler.Register(entry.spec, asynq.NewTask(entry.taskType, nil), asynq.MaxRetry(3), asynq.Queue(QueueDefault)); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", entry.taskType, err)
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.scheduler.Shutdown()
		w.server.Shutdown()
		return nil
	case err := <-errCh:
		w.scheduler.Shutdown()
		return err
	}
}

func observe(logger *zap.Logger, metrics *observability.Metrics) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			metrics.JobProcessed(t.Type(), err)
			fields := []zap.Field{zap.String("task", t.Type()), zap.Duration("duration", time.Since(start))}
			if err != nil {
				logger.Warn("task failed", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("task processed", fields...)
			}
			return err
		})
	}
}
