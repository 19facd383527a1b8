package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"gorm.io/gorm"
)

// Quotation represents a priced proposal sent to a lead
type Quotation struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	QuotationNumber string               `gorm:"size:100;uniqueIndex;not null" json:"quotationNumber"`
	LeadID          uuid.UUID            `gorm:"type:uuid;not null;index" json:"leadId"`
	Client          Client               `gorm:"embedded;embeddedPrefix:client_" json:"client"`
	Date            time.Time            `gorm:"not null" json:"date"`
	ValidUntil      time.Time            `gorm:"not null;index" json:"validUntil"`
	Subtotal        float64              `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	Tax             float64              `gorm:"type:decimal(15,2);not null;default:0" json:"tax"`
	Total           float64              `gorm:"type:decimal(15,2);not null;default:0" json:"total"`
	Status          enum.QuotationStatus `gorm:"size:20;not null;index" json:"status"`
	Notes           string               `gorm:"type:text" json:"notes"`
	Terms           string               `gorm:"type:text" json:"terms"`
	PDFURL          string               `gorm:"column:pdf_url;size:1024" json:"pdfUrl"`
	CustomFields    CustomFieldValues    `gorm:"type:text;serializer:json" json:"customFields"`
	CreatedBy       uuid.UUID            `gorm:"type:uuid;not null;index" json:"createdBy"`
	CreatedAt       time.Time            `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt       `gorm:"index" json:"-"`

	// Relationships
	Lead    *Lead           `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	Creator *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Items   []QuotationItem `gorm:"foreignKey:QuotationID" json:"items"`
}

// Client is the snapshot of the customer a quotation is addressed to
type Client struct {
	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email"`
	Company string `gorm:"size:255" json:"company"`
	Address string `gorm:"type:text" json:"address"`
}

// BeforeCreate generates a UUID before creating a new quotation
func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Status == "" {
		q.Status = enum.QuotationStatusDraft
	}
	if q.Date.IsZero() {
		q.Date = time.Now()
	}
	return nil
}

// TableName returns the table name for the Quotation model
func (Quotation) TableName() string {
	return "quotations"
}

// QuotationItem represents a line item in a quotation
type QuotationItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position    int       `gorm:"not null;default:0" json:"-"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Quantity    float64   `gorm:"type:decimal(15,2);not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(15,2);not null" json:"unitPrice"`
	Amount      float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
}

// BeforeCreate generates a UUID before creating a new quotation item
func (qi *QuotationItem) BeforeCreate(tx *gorm.DB) error {
	if qi.ID == uuid.Nil {
		qi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the QuotationItem model
func (QuotationItem) TableName() string {
	return "quotation_items"
}
