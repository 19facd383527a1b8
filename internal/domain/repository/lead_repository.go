package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
)

// LeadFilter is the complete criteria for listing leads
type LeadFilter struct {
	Search   string
	Status   *enum.LeadStatus
	Source   *enum.LeadSource
	Assignee AssigneeFilter
	// OwnerID is the mandatory ownership restriction. It is ANDed with every
	// other criterion, so request parameters can never widen it.
	OwnerID *uuid.UUID
	Sort    Sort
	Page    Page
}

// LeadRepository defines the interface for lead data operations
type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error)
	Update(ctx context.Context, lead *entity.Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *LeadFilter) ([]entity.Lead, int64, error)

	// UpdateWithActivity saves lead fields and appends activity in one transaction.
	UpdateWithActivity(ctx context.Context, lead *entity.Lead, activity *entity.Activity) error
	// AppendActivity inserts an activity and touches the lead's updated_at in one transaction.
	AppendActivity(ctx context.Context, leadID uuid.UUID, activity *entity.Activity) error
	// SetStatus moves the lead to status and logs activity atomically.
	SetStatus(ctx context.Context, leadID uuid.UUID, status enum.LeadStatus, activity *entity.Activity) error
}
