package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/query"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/pagination"
	"go.uber.org/zap"
)

// LeadService handles lead-related operations
type LeadService struct {
	leadRepo    repository.LeadRepository
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	effects     effects
}

// NewLeadService creates a new lead service
func NewLeadService(
	leadRepo repository.LeadRepository,
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	reportCache *cache.ReportCache,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:    leadRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		effects:     newEffects(logger, metrics, reportCache),
	}
}

// LeadPage is one page of leads plus its pagination metadata
type LeadPage struct {
	Leads      []entity.Lead
	Pagination pagination.Pagination
}

// ListLeads returns the leads visible to actor matching params
func (s *LeadService) ListLeads(ctx context.Context, actor policy.Actor, params query.LeadParams) (*LeadPage, error) {
	if err := policy.Authorize(actor, policy.LeadList, nil); err != nil {
		return nil, err
	}
	filter, err := query.BuildLeadFilter(actor, params)
	if err != nil {
		return nil, err
	}

	leads, total, err := s.leadRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &LeadPage{
		Leads:      leads,
		Pagination: pagination.New(filter.Page, len(leads), total),
	}, nil
}

// GetLead returns a lead with its activities
func (s *LeadService) GetLead(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Lead, error) {
	lead, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.LeadRead, lead.AssignedTo); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) find(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, apperror.NewNotFoundError("Lead")
	}
	return lead, nil
}

// LeadInput is the payload for creating a lead
type LeadInput struct {
	Name         string
	Email        string
	Phone        string
	Company      string
	Position     string
	Address      string
	Source       enum.LeadSource
	Status       enum.LeadStatus
	AssignedTo   *uuid.UUID
	Notes        string
	CustomFields map[string]interface{}
}

// CreateLead stores a new lead created by actor. A lead an employee creates
// without an assignee is assigned to that employee, so it stays visible to them.
func (s *LeadService) CreateLead(ctx context.Context, actor policy.Actor, input *LeadInput) (*entity.Lead, error) {
	if err := policy.Authorize(actor, policy.LeadCreate, nil); err != nil {
		return nil, err
	}
	if input.Source != "" && !input.Source.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid lead source " + input.Source.String())
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid lead status " + input.Status.String())
	}

	assignee := input.AssignedTo
	if assignee == nil && !actor.Role.IsPrivileged() {
		id := actor.ID
		assignee = &id
	}
	if err := s.checkAssignee(ctx, assignee); err != nil {
		return nil, err
	}

	custom, err := s.customFields(ctx, input.CustomFields)
	if err != nil {
		return nil, err
	}

	lead := &entity.Lead{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		Phone:        input.Phone,
		Company:      strings.TrimSpace(input.Company),
		Position:     input.Position,
		Address:      input.Address,
		Source:       input.Source,
		Status:       input.Status,
		AssignedTo:   assignee,
		Notes:        input.Notes,
		CustomFields: custom,
		CreatedBy:    actor.ID,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.effects.invalidateReports(ctx)
	return s.find(ctx, lead.ID)
}

// LeadPatch carries the lead fields to change. Nil fields are kept.
// ClearAssignee unassigns the lead and wins over AssignedTo.
type LeadPatch struct {
	Name          *string
	Email         *string
	Phone         *string
	Company       *string
	Position      *string
	Address       *string
	Source        *enum.LeadSource
	Status        *enum.LeadStatus
	AssignedTo    *uuid.UUID
	ClearAssignee bool
	Notes         *string
	CustomFields  map[string]interface{}
}

// UpdateLead applies patch. A status change is logged as a status_change
// activity in the same transaction as the field update. Reassignment is open
// to anyone allowed to update the lead, employees included.
func (s *LeadService) UpdateLead(ctx context.Context, actor policy.Actor, id uuid.UUID, patch *LeadPatch) (*entity.Lead, error) {
	lead, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.LeadUpdate, lead.AssignedTo); err != nil {
		return nil, err
	}

	if patch.Source != nil {
		if !patch.Source.IsValid() {
			return nil, apperror.NewBadRequestError("Invalid lead source " + patch.Source.String())
		}
		lead.Source = *patch.Source
	}

	var activity *entity.Activity
	if patch.Status != nil && *patch.Status != lead.Status {
		if !patch.Status.IsValid() {
			return nil, apperror.NewBadRequestError("Invalid lead status " + patch.Status.String())
		}
		activity = &entity.Activity{
			Type:        enum.ActivityTypeStatusChange,
			Description: fmt.Sprintf("Status changed from %s to %s", lead.Status, *patch.Status),
			CreatedBy:   actor.ID,
		}
		lead.Status = *patch.Status
	}

	switch {
	case patch.ClearAssignee:
		lead.AssignedTo = nil
	case patch.AssignedTo != nil:
		if err := s.checkAssignee(ctx, patch.AssignedTo); err != nil {
			return nil, err
		}
		lead.AssignedTo = patch.AssignedTo
	}

	if patch.CustomFields != nil {
		custom, err := s.customFields(ctx, patch.CustomFields)
		if err != nil {
			return nil, err
		}
		lead.CustomFields = custom
	}

	setString(&lead.Name, patch.Name)
	setString(&lead.Phone, patch.Phone)
	setString(&lead.Company, patch.Company)
	setString(&lead.Position, patch.Position)
	setString(&lead.Address, patch.Address)
	setString(&lead.Notes, patch.Notes)
	if patch.Email != nil {
		lead.Email = normalizeEmail(*patch.Email)
	}

	// Relationships are reloaded below; clearing them keeps Save to the row.
	lead.Assignee, lead.Creator, lead.Activities = nil, nil, nil
	if activity != nil {
		err = s.leadRepo.UpdateWithActivity(ctx, lead, activity)
	} else {
		err = s.leadRepo.Update(ctx, lead)
	}
	if err != nil {
		return nil, err
	}

	s.effects.invalidateReports(ctx)
	return s.find(ctx, id)
}

// DeleteLead removes a lead together with its activities. Managers and admins only.
func (s *LeadService) DeleteLead(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	lead, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.LeadDelete, lead.AssignedTo); err != nil {
		return err
	}
	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.effects.invalidateReports(ctx)
	return nil
}

// ActivityInput is the payload for appending an activity
type ActivityInput struct {
	Type        enum.ActivityType
	Description string
	DueDate     *time.Time
	Completed   bool
}

// AddActivity appends an activity to a lead and returns the reloaded lead
func (s *LeadService) AddActivity(ctx context.Context, actor policy.Actor, id uuid.UUID, input *ActivityInput) (*entity.Lead, error) {
	lead, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.LeadActivity, lead.AssignedTo); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid activity type " + input.Type.String())
	}

	activity := &entity.Activity{
		Type:        input.Type,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		Completed:   input.Completed,
		CreatedBy:   actor.ID,
	}
	if err := s.leadRepo.AppendActivity(ctx, id, activity); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *LeadService) checkAssignee(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NewNotFoundError("Assigned user")
	}
	return nil
}

func (s *LeadService) customFields(ctx context.Context, raw map[string]interface{}) (entity.CustomFieldValues, error) {
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return parseCustomFields(company.FieldsFor(enum.CustomFieldEntityLead), raw)
}
