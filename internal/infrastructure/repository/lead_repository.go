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

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) domainRepo.LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	var lead entity.Lead
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Creator").
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&lead, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &lead, err
}

func (r *leadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lead).Error
}

func (r *leadRepository) UpdateWithActivity(ctx context.Context, lead *entity.Lead, activity *entity.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(lead).Error; err != nil {
			return err
		}
		if activity == nil {
			return nil
		}
		activity.LeadID = lead.ID
		return tx.Create(activity).Error
	})
}

func (r *leadRepository) AppendActivity(ctx context.Context, leadID uuid.UUID, activity *entity.Activity) error {
	activity.LeadID = leadID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activity).Error; err != nil {
			return err
		}
		return touch(tx, leadID, nil)
	})
}

func (r *leadRepository) SetStatus(ctx context.Context, leadID uuid.UUID, status enum.LeadStatus, activity *entity.Activity) error {
	activity.LeadID = leadID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touch(tx, leadID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		return tx.Create(activity).Error
	})
}

// Delete soft-deletes the lead and hard-deletes its activities in one transaction.
func (r *leadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&entity.Activity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Lead{}, "id = ?", id).Error
	})
}

func (r *leadRepository) List(ctx context.Context, f *domainRepo.LeadFilter) ([]entity.Lead, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entity.Lead{}).Scopes(
			OwnedBy("assigned_to", f.OwnerID),
			Search(f.Search, "name", "email", "company"),
			leadEquality(f),
		)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []entity.Lead
	err := base().
		Scopes(Sorted(f.Sort), Paginate(f.Page)).
		Preload("Assignee").
		Preload("Creator").
		Find(&leads).Error
	return leads, total, err
}

func leadEquality(f *domainRepo.LeadFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != nil {
			db = db.Where("status = ?", *f.Status)
		}
		if f.Source != nil {
			db = db.Where("source = ?", *f.Source)
		}
		switch f.Assignee.Mode {
		case domainRepo.AssigneeNone:
			db = db.Where("assigned_to IS NULL")
		case domainRepo.AssigneeUser:
			db = db.Where("assigned_to = ?", f.Assignee.UserID)
		}
		return db
	}
}

// touch bumps updated_at, together with any extra columns, and fails when the lead is gone.
func touch(tx *gorm.DB, leadID uuid.UUID, extra map[string]interface{}) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&entity.Lead{}).Where("id = ?", leadID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
