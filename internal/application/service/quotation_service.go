package service

import (
	"bytes"
	"context"
	"errors"
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
	"github.com/sangkips/crm-backend/internal/infrastructure/jobs"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/internal/infrastructure/pdf"
	"github.com/sangkips/crm-backend/internal/infrastructure/storage"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/email"
	"github.com/sangkips/crm-backend/pkg/pagination"
	"github.com/sangkips/crm-backend/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberAttempts bounds the search for a free generated quotation number.
const numberAttempts = 5

// QuotationService handles quotation-related operations
type QuotationService struct {
	quotationRepo repository.QuotationRepository
	leadRepo      repository.LeadRepository
	companyRepo   repository.CompanyRepository
	store         storage.Storage
	renderer      pdf.Renderer
	dispatcher    jobs.Dispatcher
	emailService  *email.EmailService
	effects       effects
}

// QuotationDeps groups the collaborators of QuotationService
type QuotationDeps struct {
	Quotations repository.QuotationRepository
	Leads      repository.LeadRepository
	Company    repository.CompanyRepository
	Storage    storage.Storage
	Renderer   pdf.Renderer
	Dispatcher jobs.Dispatcher
	Email      *email.EmailService
	Cache      *cache.ReportCache
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewQuotationService creates a new quotation service
func NewQuotationService(deps QuotationDeps) *QuotationService {
	return &QuotationService{
		quotationRepo: deps.Quotations,
		leadRepo:      deps.Leads,
		companyRepo:   deps.Company,
		store:         deps.Storage,
		renderer:      deps.Renderer,
		dispatcher:    deps.Dispatcher,
		emailService:  deps.Email,
		effects:       newEffects(deps.Logger, deps.Metrics, deps.Cache),
	}
}

// QuotationPage is one page of quotations plus its pagination metadata
type QuotationPage struct {
	Quotations []entity.Quotation
	Pagination pagination.Pagination
}

// ListQuotations returns the quotations visible to actor matching params
func (s *QuotationService) ListQuotations(ctx context.Context, actor policy.Actor, params query.QuotationParams) (*QuotationPage, error) {
	if err := policy.Authorize(actor, policy.QuotationList, nil); err != nil {
		return nil, err
	}
	filter, err := query.BuildQuotationFilter(actor, params)
	if err != nil {
		return nil, err
	}

	quotations, total, err := s.quotationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &QuotationPage{
		Quotations: quotations,
		Pagination: pagination.New(filter.Page, len(quotations), total),
	}, nil
}

// GetQuotation retrieves a quotation by ID
func (s *QuotationService) GetQuotation(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Quotation, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.QuotationRead, &q.CreatedBy); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuotationService) find(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	q, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NewNotFoundError("Quotation")
	}
	return q, nil
}

// QuotationItemInput represents a line item input
type QuotationItemInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

// CreateQuotationInput represents the input for creating a quotation
type CreateQuotationInput struct {
	LeadID          uuid.UUID
	QuotationNumber string
	Client          entity.Client
	Date            *time.Time
	ValidUntil      time.Time
	Items           []QuotationItemInput
	Subtotal        float64
	Tax             float64
	Total           float64
	Status          enum.QuotationStatus
	Notes           string
	Terms           string
	CustomFields    map[string]interface{}
}

// CreateQuotation creates a quotation for a lead. Employees may only quote
// leads assigned to them. After the write, the PDF is queued and a lead still
// in an early stage moves to proposal; neither can fail the request.
func (s *QuotationService) CreateQuotation(ctx context.Context, actor policy.Actor, input *CreateQuotationInput) (*entity.Quotation, error) {
	lead, err := s.leadRepo.GetByID(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, apperror.NewNotFoundError("Lead")
	}
	if err := policy.Authorize(actor, policy.QuotationCreate, lead.AssignedTo); err != nil {
		return nil, err
	}

	if input.Status != "" && !input.Status.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid quotation status " + input.Status.String())
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	number, err := s.quotationNumber(ctx, input.QuotationNumber)
	if err != nil {
		return nil, err
	}
	custom, err := s.customFields(ctx, input.CustomFields)
	if err != nil {
		return nil, err
	}

	items := toItems(input.Items)
	priceItems(items)
	totals := resolveTotals(items, Totals{Subtotal: input.Subtotal, Tax: input.Tax, Total: input.Total})

	q := &entity.Quotation{
		QuotationNumber: number,
		LeadID:          lead.ID,
		Client:          input.Client,
		ValidUntil:      input.ValidUntil,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Status:          input.Status,
		Notes:           input.Notes,
		Terms:           input.Terms,
		CustomFields:    custom,
		CreatedBy:       actor.ID,
	}
	if input.Date != nil {
		q.Date = *input.Date
	}
	if err := s.quotationRepo.Create(ctx, q); err != nil {
		return nil, numberConflict(err, number)
	}

	s.queuePDF(ctx, q.ID)
	if lead.Status.IsEarlyStage() {
		activity := &entity.Activity{
			Type:        enum.ActivityTypeStatusChange,
			Description: fmt.Sprintf("Status changed from %s to proposal due to quotation creation", lead.Status),
			CreatedBy:   actor.ID,
		}
		s.effects.failed("lead_proposal",
			s.leadRepo.SetStatus(ctx, lead.ID, enum.LeadStatusProposal, activity),
			zap.String("lead_id", lead.ID.String()))
	}
	s.effects.invalidateReports(ctx)

	return s.find(ctx, q.ID)
}

// UpdateQuotationInput carries the fields to change. Nil fields are kept;
// a non-nil Items replaces every line item.
type UpdateQuotationInput struct {
	QuotationNumber *string
	Client          *entity.Client
	Date            *time.Time
	ValidUntil      *time.Time
	Items           []QuotationItemInput
	Subtotal        *float64
	Tax             *float64
	Total           *float64
	Status          *enum.QuotationStatus
	Notes           *string
	Terms           *string
	CustomFields    map[string]interface{}
}

func (in *UpdateQuotationInput) changesDocument() bool {
	return in.Items != nil || in.Subtotal != nil || in.Tax != nil || in.Total != nil ||
		in.Client != nil || in.Notes != nil || in.Terms != nil
}

// UpdateQuotation applies input. The first transition into accepted or
// rejected moves the lead to won or lost after the quotation is saved; a
// repeated identical status does nothing to the lead, even when two requests
// race.
func (s *QuotationService) UpdateQuotation(ctx context.Context, actor policy.Actor, id uuid.UUID, input *UpdateQuotationInput) (*entity.Quotation, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.QuotationUpdate, &q.CreatedBy); err != nil {
		return nil, err
	}

	if input.Status != nil && !input.Status.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid quotation status " + input.Status.String())
	}
	if input.QuotationNumber != nil && *input.QuotationNumber != q.QuotationNumber {
		number, err := s.quotationNumber(ctx, *input.QuotationNumber)
		if err != nil {
			return nil, err
		}
		q.QuotationNumber = number
	}
	if input.CustomFields != nil {
		custom, err := s.customFields(ctx, input.CustomFields)
		if err != nil {
			return nil, err
		}
		q.CustomFields = custom
	}
	if input.Client != nil {
		q.Client = *input.Client
	}
	if input.Date != nil {
		q.Date = *input.Date
	}
	if input.ValidUntil != nil {
		q.ValidUntil = *input.ValidUntil
	}
	setString(&q.Notes, input.Notes)
	setString(&q.Terms, input.Terms)

	replaceItems := input.Items != nil
	if replaceItems {
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
		q.Items = toItems(input.Items)
		priceItems(q.Items)
	}
	if replaceItems || input.Subtotal != nil || input.Tax != nil || input.Total != nil {
		given := Totals{Subtotal: q.Subtotal, Tax: q.Tax, Total: q.Total}
		if replaceItems {
			given = Totals{}
		}
		if input.Subtotal != nil {
			given.Subtotal = *input.Subtotal
		}
		if input.Tax != nil {
			given.Tax = *input.Tax
		}
		if input.Total != nil {
			given.Total = *input.Total
		}
		t := resolveTotals(q.Items, given)
		q.Subtotal, q.Tax, q.Total = t.Subtotal, t.Tax, t.Total
	}

	q.Lead, q.Creator = nil, nil
	if err := s.quotationRepo.Update(ctx, q, replaceItems); err != nil {
		return nil, numberConflict(err, q.QuotationNumber)
	}

	if input.Status != nil {
		changed, err := s.quotationRepo.UpdateStatus(ctx, id, *input.Status)
		if err != nil {
			return nil, err
		}
		q.Status = *input.Status
		if changed {
			s.cascadeOutcome(ctx, actor, q)
		}
	}
	if input.changesDocument() {
		s.queuePDF(ctx, q.ID)
	}
	s.effects.invalidateReports(ctx)

	return s.find(ctx, id)
}

// cascadeOutcome moves the lead to won or lost when q just closed.
func (s *QuotationService) cascadeOutcome(ctx context.Context, actor policy.Actor, q *entity.Quotation) {
	leadStatus, ok := q.Status.LeadOutcome()
	if !ok {
		return
	}
	reason := "acceptance"
	if q.Status == enum.QuotationStatusRejected {
		reason = "rejection"
	}
	activity := &entity.Activity{
		Type:        enum.ActivityTypeStatusChange,
		Description: fmt.Sprintf("Status changed to %s due to quotation %s", leadStatus, reason),
		CreatedBy:   actor.ID,
	}
	err := s.leadRepo.SetStatus(ctx, q.LeadID, leadStatus, activity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.effects.logger.Info("quotation closed for a deleted lead",
			zap.String("quotation_id", q.ID.String()), zap.String("lead_id", q.LeadID.String()))
		return
	}
	s.effects.failed("lead_cascade", err,
		zap.String("quotation_id", q.ID.String()), zap.String("lead_id", q.LeadID.String()))
}

// DeleteQuotation removes a quotation and its stored PDF. Managers and admins only.
func (s *QuotationService) DeleteQuotation(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	q, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.QuotationDelete, &q.CreatedBy); err != nil {
		return err
	}
	if err := s.quotationRepo.Delete(ctx, id); err != nil {
		return err
	}

	if q.PDFURL != "" && s.store != nil {
		if key, ok := s.store.KeyFromURL(q.PDFURL); ok {
			s.effects.failed("pdf_delete", s.store.Delete(ctx, key), zap.String("key", key))
		}
	}
	s.effects.invalidateReports(ctx)
	return nil
}

// SendQuotation marks the quotation sent and emails the client a link to it
func (s *QuotationService) SendQuotation(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Quotation, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.QuotationSend, &q.CreatedBy); err != nil {
		return nil, err
	}

	changed, err := s.quotationRepo.UpdateStatus(ctx, id, enum.QuotationStatusSent)
	if err != nil {
		return nil, err
	}
	q.Status = enum.QuotationStatusSent
	if changed {
		s.effects.invalidateReports(ctx)
	}

	if q.Client.Email != "" && s.emailService != nil {
		companyName := entity.DefaultCompanyName
		if company, err := s.companyRepo.GetOrCreate(ctx); err == nil {
			companyName = company.Name
		}
		err := s.emailService.SendQuotationEmail(email.QuotationMail{
			To:              q.Client.Email,
			ClientName:      q.Client.Name,
			QuotationNumber: q.QuotationNumber,
			Total:           decimal.NewFromFloat(q.Total).StringFixed(2),
			ValidUntil:      q.ValidUntil,
			PDFURL:          q.PDFURL,
			CompanyName:     companyName,
		})
		if !errors.Is(err, email.ErrNotConfigured) {
			s.effects.failed("quotation_email", err, zap.String("quotation_id", id.String()))
		}
	}

	return s.find(ctx, id)
}

// GeneratePDF renders the quotation, stores the document and records its URL.
// It returns nil without doing anything when rendering is disabled.
func (s *QuotationService) GeneratePDF(ctx context.Context, id uuid.UUID) error {
	q, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if q == nil {
		// Deleted before the job ran.
		return nil
	}
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return err
	}

	doc, err := s.renderer.Render(ctx, q, company)
	if errors.Is(err, pdf.ErrDisabled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("render quotation %s: %w", q.QuotationNumber, err)
	}

	key := pdfKey(q)
	if _, err := s.store.Save(ctx, key, "application/pdf", bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("store quotation %s: %w", q.QuotationNumber, err)
	}
	return s.quotationRepo.SetPDFURL(ctx, q.ID, s.store.URL(key))
}

func (s *QuotationService) queuePDF(ctx context.Context, id uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	s.effects.failed("pdf_generate", s.dispatcher.EnqueueQuotationPDF(ctx, id),
		zap.String("quotation_id", id.String()))
}

// quotationNumber validates a client supplied number, or generates the next
// free one when requested is blank.
func (s *QuotationService) quotationNumber(ctx context.Context, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		taken, err := s.quotationRepo.NumberTaken(ctx, requested)
		if err != nil {
			return "", err
		}
		if taken {
			return "", apperror.NewConflictError("Quotation number " + requested + " already exists")
		}
		return requested, nil
	}

	next, err := s.quotationRepo.GetNextNumber(ctx)
	if err != nil {
		return "", err
	}
	for i := 0; i < numberAttempts; i++ {
		candidate := utils.QuotationNumber(next + i)
		taken, err := s.quotationRepo.NumberTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperror.NewConflictError("Could not allocate a quotation number, please retry")
}

// numberConflict turns a unique violation that slipped past the number check,
// such as a concurrent insert, into a 409.
func numberConflict(err error, number string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.NewConflictError("Quotation number " + number + " already exists")
	}
	return err
}

func (s *QuotationService) customFields(ctx context.Context, raw map[string]interface{}) (entity.CustomFieldValues, error) {
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return parseCustomFields(company.FieldsFor(enum.CustomFieldEntityQuotation, enum.CustomFieldEntityClient), raw)
}

func toItems(in []QuotationItemInput) []entity.QuotationItem {
	items := make([]entity.QuotationItem, 0, len(in))
	for _, it := range in {
		items = append(items, entity.QuotationItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return items
}

// pdfKey is stable per quotation so regeneration overwrites the previous file.
func pdfKey(q *entity.Quotation) string {
	return "quotations/" + q.ID.String() + ".pdf"
}
