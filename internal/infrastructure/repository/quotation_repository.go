package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository creates a new quotation repository
func NewQuotationRepository(db *gorm.DB) domainRepo.QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(ctx context.Context, quotation *entity.Quotation) error {
	numberItems(quotation)
	return r.db.WithContext(ctx).Create(quotation).Error
}

func (r *quotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error) {
	return r.first(ctx, "id = ?", id)
}

// NumberTaken looks at soft-deleted rows too; the unique index still covers them.
func (r *quotationRepository) NumberTaken(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.Quotation{}).
		Where("quotation_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (r *quotationRepository) first(ctx context.Context, cond string, arg interface{}) (*entity.Quotation, error) {
	var quotation entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Creator").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quotation, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quotation, err
}

func (r *quotationRepository) Update(ctx context.Context, quotation *entity.Quotation, replaceItems bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations, "status").Save(quotation).Error; err != nil {
			return err
		}
		if !replaceItems {
			return nil
		}
		if err := tx.Where("quotation_id = ?", quotation.ID).Delete(&entity.QuotationItem{}).Error; err != nil {
			return err
		}
		if len(quotation.Items) == 0 {
			return nil
		}
		numberItems(quotation)
		for i := range quotation.Items {
			quotation.Items[i].ID = uuid.Nil
		}
		return tx.Create(&quotation.Items).Error
	})
}

// Delete soft-deletes the quotation. Items stay attached to the tombstoned row.
func (r *quotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Quotation{}, "id = ?", id).Error
}

func (r *quotationRepository) List(ctx context.Context, f *domainRepo.QuotationFilter) ([]entity.Quotation, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&entity.Quotation{}).Scopes(
			OwnedBy("created_by", f.CreatorID),
			Search(f.Search, "quotation_number", "client_name", "client_company"),
		)
		if f.Status != nil {
			q = q.Where("status = ?", *f.Status)
		}
		if f.LeadID != nil {
			q = q.Where("lead_id = ?", *f.LeadID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quotations []entity.Quotation
	err := base().
		Scopes(Sorted(f.Sort), Paginate(f.Page)).
		Preload("Lead").
		Preload("Creator").
		Find(&quotations).Error
	return quotations, total, err
}

// UpdateStatus moves the quotation to status and reports whether this call made
// the change. Concurrent callers setting the same status see true exactly once.
func (r *quotationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.QuotationStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ? AND status <> ?", id, status).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *quotationRepository) SetPDFURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ?", id).
		Update("pdf_url", url).Error
}

// GetNextNumber counts soft-deleted rows too so numbers are never reused.
func (r *quotationRepository) GetNextNumber(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.Quotation{}).Count(&count).Error
	return int(count) + 1, err
}

func (r *quotationRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("status IN ? AND valid_until < ?",
			[]enum.QuotationStatus{enum.QuotationStatusDraft, enum.QuotationStatusSent}, cutoff.UTC()).
		Update("status", enum.QuotationStatusExpired)
	return res.RowsAffected, res.Error
}

func numberItems(q *entity.Quotation) {
	for i := range q.Items {
		q.Items[i].QuotationID = q.ID
		q.Items[i].Position = i
	}
}
