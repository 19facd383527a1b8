package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/internal/infrastructure/storage"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"go.uber.org/zap"
)

// CompanyService manages the company profile and custom field definitions
type CompanyService struct {
	companyRepo repository.CompanyRepository
	store       storage.Storage
	maxUpload   int64
	effects     effects
}

// NewCompanyService creates a new company service
func NewCompanyService(companyRepo repository.CompanyRepository, store storage.Storage, maxUpload int64, metrics *observability.Metrics, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		store:       store,
		maxUpload:   maxUpload,
		effects:     newEffects(logger, metrics, nil),
	}
}

// GetCompany returns the company, creating the default one on first use
func (s *CompanyService) GetCompany(ctx context.Context, actor policy.Actor) (*entity.Company, error) {
	if err := policy.Authorize(actor, policy.CompanyRead, nil); err != nil {
		return nil, err
	}
	return s.companyRepo.GetOrCreate(ctx)
}

// CompanyPatch carries the profile fields to change. Nil fields are kept.
type CompanyPatch struct {
	Name     *string
	Address  *string
	City     *string
	State    *string
	ZipCode  *string
	Country  *string
	Phone    *string
	Website  *string
	TaxID    *string
	Industry *string
	Logo     *string
	About    *string
}

// UpdateCompany changes the company profile. Custom fields have their own operations.
func (s *CompanyService) UpdateCompany(ctx context.Context, actor policy.Actor, patch *CompanyPatch) (*entity.Company, error) {
	if err := policy.Authorize(actor, policy.CompanyWrite, nil); err != nil {
		return nil, err
	}
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "name", Message: "is required"}})
	}
	setString(&company.Name, patch.Name)
	setString(&company.Address, patch.Address)
	setString(&company.City, patch.City)
	setString(&company.State, patch.State)
	setString(&company.ZipCode, patch.ZipCode)
	setString(&company.Country, patch.Country)
	setString(&company.Phone, patch.Phone)
	setString(&company.Website, patch.Website)
	setString(&company.TaxID, patch.TaxID)
	setString(&company.Industry, patch.Industry)
	setString(&company.Logo, patch.Logo)
	setString(&company.About, patch.About)

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// UploadLogo stores a new logo and removes the one it replaces
func (s *CompanyService) UploadLogo(ctx context.Context, actor policy.Actor, file *FileInput) (string, error) {
	if err := policy.Authorize(actor, policy.CompanyWrite, nil); err != nil {
		return "", err
	}
	if err := checkFile(file, imageTypes, s.maxUpload); err != nil {
		return "", err
	}
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return "", err
	}

	key := storage.NewKey("company", file.Filename)
	if _, err := s.store.Save(ctx, key, file.ContentType, file.Body); err != nil {
		return "", fmt.Errorf("store logo: %w", err)
	}

	previous := company.Logo
	company.Logo = s.store.URL(key)
	if err := s.companyRepo.Update(ctx, company); err != nil {
		s.effects.failed("logo_delete", s.store.Delete(ctx, key), zap.String("key", key))
		return "", err
	}

	if oldKey, ok := s.store.KeyFromURL(previous); ok && previous != "" {
		s.effects.failed("logo_delete", s.store.Delete(ctx, oldKey), zap.String("key", oldKey))
	}
	return company.Logo, nil
}

// CustomFieldInput describes a custom field definition
type CustomFieldInput struct {
	Name     string
	Entity   enum.CustomFieldEntity
	Type     enum.CustomFieldType
	Options  []string
	Required bool
}

// AddCustomField defines a new custom field. Names are unique per entity.
func (s *CompanyService) AddCustomField(ctx context.Context, actor policy.Actor, input *CustomFieldInput) (*entity.CustomFieldDefinition, error) {
	if err := policy.Authorize(actor, policy.CustomFieldWrite, nil); err != nil {
		return nil, err
	}
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	def := &entity.CustomFieldDefinition{
		CompanyID: company.ID,
		Name:      input.Name,
		Entity:    input.Entity,
		Type:      input.Type,
		Options:   input.Options,
		Required:  input.Required,
	}
	if err := validateDefinition(def); err != nil {
		return nil, err
	}
	if err := uniqueName(company, def); err != nil {
		return nil, err
	}

	if err := s.companyRepo.AddCustomField(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// CustomFieldPatch carries the definition fields to change. Nil fields are kept.
type CustomFieldPatch struct {
	Name     *string
	Entity   *enum.CustomFieldEntity
	Type     *enum.CustomFieldType
	Options  []string
	Required *bool
}

// UpdateCustomField changes a custom field definition. Values already stored
// on leads and quotations are not rewritten.
func (s *CompanyService) UpdateCustomField(ctx context.Context, actor policy.Actor, id uuid.UUID, patch *CustomFieldPatch) (*entity.CustomFieldDefinition, error) {
	if err := policy.Authorize(actor, policy.CustomFieldWrite, nil); err != nil {
		return nil, err
	}
	def, err := s.findField(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		def.Name = *patch.Name
	}
	if patch.Entity != nil {
		def.Entity = *patch.Entity
	}
	if patch.Type != nil {
		def.Type = *patch.Type
	}
	if patch.Options != nil {
		def.Options = patch.Options
	}
	setBool(&def.Required, patch.Required)

	if err := validateDefinition(def); err != nil {
		return nil, err
	}
	company, err := s.companyRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	if err := uniqueName(company, def); err != nil {
		return nil, err
	}

	if err := s.companyRepo.UpdateCustomField(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// DeleteCustomField removes a custom field definition
func (s *CompanyService) DeleteCustomField(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.CustomFieldWrite, nil); err != nil {
		return err
	}
	if _, err := s.findField(ctx, id); err != nil {
		return err
	}
	return s.companyRepo.DeleteCustomField(ctx, id)
}

func (s *CompanyService) findField(ctx context.Context, id uuid.UUID) (*entity.CustomFieldDefinition, error) {
	def, err := s.companyRepo.GetCustomField(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apperror.NewNotFoundError("Custom field")
	}
	return def, nil
}

func uniqueName(company *entity.Company, def *entity.CustomFieldDefinition) error {
	for _, f := range company.CustomFields {
		if f.ID != def.ID && f.Entity == def.Entity && strings.EqualFold(f.Name, def.Name) {
			return apperror.NewConflictError(fmt.Sprintf("Custom field %s already exists for %s", def.Name, def.Entity))
		}
	}
	return nil
}
