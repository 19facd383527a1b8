package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher hands quotation PDF work to whatever executes it.
type Dispatcher interface {
	EnqueueQuotationPDF(ctx context.Context, quotationID uuid.UUID) error
}

// AsynqDispatcher enqueues tasks for the worker process
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(opt asynq.RedisClientOpt) *AsynqDispatcher {
	return &AsynqDispatcher{client: asynq.NewClient(opt)}
}

func (d *AsynqDispatcher) EnqueueQuotationPDF(ctx context.Context, quotationID uuid.UUID) error {
	task, err := NewQuotationPDFTask(quotationID)
	if err != nil {
		return err
	}
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	)
	return err
}

func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

// InlineDispatcher runs PDF generation in the calling goroutine. It is used
// when no Redis is configured and in tests. Bind must be called before use.
type InlineDispatcher struct {
	mu  sync.RWMutex
	gen PDFGenerator
}

func NewInlineDispatcher() *InlineDispatcher {
	return &InlineDispatcher{}
}

// Bind sets the generator. The quotation service both uses the dispatcher
// and is the generator, so it is attached after construction.
func (d *InlineDispatcher) Bind(gen PDFGenerator) {
	d.mu.Lock()
	d.gen = gen
	d.mu.Unlock()
}

func (d *InlineDispatcher) EnqueueQuotationPDF(ctx context.Context, quotationID uuid.UUID) error {
	d.mu.RLock()
	gen := d.gen
	d.mu.RUnlock()
	if gen == nil {
		return errors.New("jobs: inline dispatcher has no generator")
	}
	return gen.GeneratePDF(ctx, quotationID)
}

// RunLocal performs the periodic sweeps on a ticker until ctx ends. The API
// process uses it when there is no worker.
func RunLocal(ctx context.Context, h Housekeeper, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := h.ExpireQuotations(ctx); err != nil {
				logger.Warn("quotation expiry sweep failed", zap.Error(err))
			} else if n > 0 {
				logger.Info("quotations expired", zap.Int64("count", n))
			}
			if err := h.Cleanup(ctx); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}
}
