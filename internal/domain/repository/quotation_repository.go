package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
)

// QuotationFilter is the complete criteria for listing quotations
type QuotationFilter struct {
	Search string
	Status *enum.QuotationStatus
	LeadID *uuid.UUID
	// CreatorID is the mandatory ownership restriction for employees.
	CreatorID *uuid.UUID
	Sort      Sort
	Page      Page
}

// QuotationRepository defines the interface for quotation data operations
type QuotationRepository interface {
	Create(ctx context.Context, quotation *entity.Quotation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error)
	// NumberTaken reports whether any quotation, deleted ones included, uses number.
	NumberTaken(ctx context.Context, number string) (bool, error)
	// Update saves the quotation, replacing its items when replaceItems is set.
	// Status is left alone; it only changes through UpdateStatus.
	Update(ctx context.Context, quotation *entity.Quotation, replaceItems bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *QuotationFilter) ([]entity.Quotation, int64, error)
	// UpdateStatus sets status unless it is already set and reports whether the row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.QuotationStatus) (bool, error)
	SetPDFURL(ctx context.Context, id uuid.UUID, url string) error
	GetNextNumber(ctx context.Context) (int, error)
	// ExpireBefore marks draft and sent quotations whose validity ended before cutoff as expired.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
