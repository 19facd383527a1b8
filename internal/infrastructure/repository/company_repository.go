package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB) domainRepo.CompanyRepository {
	return &companyRepository{db: db}
}

// GetOrCreate returns the oldest company row, inserting a default one when the table is empty.
func (r *companyRepository) GetOrCreate(ctx context.Context) (*entity.Company, error) {
	var company entity.Company
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("created_at ASC").First(&company).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			company = entity.Company{Name: entity.DefaultCompanyName}
			return tx.Create(&company).Error
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("company_id = ?", company.ID).
		Order("created_at ASC").
		Find(&company.CustomFields).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) Update(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(company).Error
}

func (r *companyRepository) AddCustomField(ctx context.Context, field *entity.CustomFieldDefinition) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *companyRepository) GetCustomField(ctx context.Context, id uuid.UUID) (*entity.CustomFieldDefinition, error) {
	var field entity.CustomFieldDefinition
	err := r.db.WithContext(ctx).First(&field, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &field, err
}

func (r *companyRepository) UpdateCustomField(ctx context.Context, field *entity.CustomFieldDefinition) error {
	return r.db.WithContext(ctx).Save(field).Error
}

func (r *companyRepository) DeleteCustomField(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.CustomFieldDefinition{}, "id = ?", id).Error
}
