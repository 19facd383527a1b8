package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"gorm.io/gorm"
)

// Lead is a prospective customer tracked through the sales funnel
type Lead struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Name         string            `gorm:"size:255;not null" json:"name"`
	Email        string            `gorm:"size:255;not null" json:"email"`
	Phone        string            `gorm:"size:50" json:"phone"`
	Company      string            `gorm:"size:255;not null" json:"company"`
	Position     string            `gorm:"size:255" json:"position"`
	Address      string            `gorm:"type:text" json:"address"`
	Source       enum.LeadSource   `gorm:"size:30;not null;index" json:"source"`
	Status       enum.LeadStatus   `gorm:"size:30;not null;index" json:"status"`
	AssignedTo   *uuid.UUID        `gorm:"type:uuid;index" json:"assignedTo"`
	Notes        string            `gorm:"type:text" json:"notes"`
	CustomFields CustomFieldValues `gorm:"type:text;serializer:json" json:"customFields"`
	CreatedBy    uuid.UUID         `gorm:"type:uuid;not null;index" json:"createdBy"`
	CreatedAt    time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relationships
	Assignee   *User      `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Creator    *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Activities []Activity `gorm:"foreignKey:LeadID" json:"activities"`
}

// BeforeCreate generates a UUID and applies funnel defaults before creating a new lead
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Source == "" {
		l.Source = enum.LeadSourceOther
	}
	if l.Status == "" {
		l.Status = enum.LeadStatusNew
	}
	return nil
}

// TableName returns the table name for the Lead model
func (Lead) TableName() string {
	return "leads"
}

// IsAssignedTo reports whether the lead is assigned to the given user.
func (l *Lead) IsAssignedTo(userID uuid.UUID) bool {
	return l.AssignedTo != nil && *l.AssignedTo == userID
}

// Activity is an append-only entry in a lead's history
type Activity struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	LeadID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"-"`
	Type        enum.ActivityType `gorm:"size:30;not null" json:"type"`
	Description string            `gorm:"type:text;not null" json:"description"`
	DueDate     *time.Time        `json:"dueDate,omitempty"`
	Completed   bool              `json:"completed"`
	CreatedBy   uuid.UUID         `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (Activity) TableName() string {
	return "lead_activities"
}
