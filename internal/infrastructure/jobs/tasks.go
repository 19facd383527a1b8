// Package jobs runs quotation PDF rendering and housekeeping outside the request path.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every task is enqueued on.
	QueueDefault = "default"

	TaskQuotationPDF     = "quotation:pdf"
	TaskExpireQuotations = "quotation:expire"
	TaskCleanup          = "maintenance:cleanup"
)

// PDFGenerator renders and stores the PDF of one quotation.
type PDFGenerator interface {
	GeneratePDF(ctx context.Context, quotationID uuid.UUID) error
}

// Housekeeper runs the periodic sweeps.
type Housekeeper interface {
	ExpireQuotations(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context) error
}

type quotationPDFPayload struct {
	QuotationID uuid.UUID `json:"quotationId"`
}

// NewQuotationPDFTask builds the task that regenerates one quotation's PDF.
func NewQuotationPDFTask(id uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(quotationPDFPayload{QuotationID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationPDF, data), nil
}

// HandleQuotationPDF adapts a PDFGenerator to an asynq handler.
func HandleQuotationPDF(gen PDFGenerator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p quotationPDFPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil || p.QuotationID == uuid.Nil {
			return fmt.Errorf("decode %s payload: %v: %w", TaskQuotationPDF, err, asynq.SkipRetry)
		}
		return gen.GeneratePDF(ctx, p.QuotationID)
	}
}

// HandleExpireQuotations adapts the expiry sweep.
func HandleExpireQuotations(h Housekeeper) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		_, err := h.ExpireQuotations(ctx)
		return err
	}
}

// HandleCleanup adapts the token and idempotency key cleanup.
func HandleCleanup(h Housekeeper) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return h.Cleanup(ctx)
	}
}
