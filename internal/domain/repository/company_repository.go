package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
)

// CompanyRepository stores the single company row and its custom field definitions
type CompanyRepository interface {
	// GetOrCreate returns the company, creating it with defaults when absent.
	GetOrCreate(ctx context.Context) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error

	AddCustomField(ctx context.Context, field *entity.CustomFieldDefinition) error
	GetCustomField(ctx context.Context, id uuid.UUID) (*entity.CustomFieldDefinition, error)
	UpdateCustomField(ctx context.Context, field *entity.CustomFieldDefinition) error
	DeleteCustomField(ctx context.Context, id uuid.UUID) error
}
