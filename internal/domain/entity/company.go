package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"gorm.io/gorm"
)

// DefaultCompanyName is used when the company row is created lazily.
const DefaultCompanyName = "My Company"

// Company is the single organisation profile for this CRM instance
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"type:text" json:"address"`
	City      string    `gorm:"size:255" json:"city"`
	State     string    `gorm:"size:255" json:"state"`
	ZipCode   string    `gorm:"size:50" json:"zipCode"`
	Country   string    `gorm:"size:255" json:"country"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Website   string    `gorm:"size:255" json:"website"`
	TaxID     string    `gorm:"column:tax_id;size:100" json:"taxId"`
	Industry  string    `gorm:"size:255" json:"industry"`
	Logo      string    `gorm:"size:1024" json:"logo"`
	About     string    `gorm:"type:text" json:"about"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relationships
	CustomFields []CustomFieldDefinition `gorm:"foreignKey:CompanyID" json:"customFields"`
}

// BeforeCreate generates a UUID before creating the company row
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Name == "" {
		c.Name = DefaultCompanyName
	}
	return nil
}

// TableName returns the table name for the Company model
func (Company) TableName() string {
	return "companies"
}

// FieldsFor returns the custom field definitions that apply to the given entity kinds.
func (c *Company) FieldsFor(entities ...enum.CustomFieldEntity) []CustomFieldDefinition {
	var out []CustomFieldDefinition
	for _, f := range c.CustomFields {
		for _, e := range entities {
			if f.Entity == e {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// CustomFieldDefinition describes a user-defined field on leads, quotations or clients
type CustomFieldDefinition struct {
	ID        uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID uuid.UUID              `gorm:"type:uuid;not null;index" json:"-"`
	Name      string                 `gorm:"size:255;not null" json:"name"`
	Entity    enum.CustomFieldEntity `gorm:"size:20;not null" json:"entity"`
	Type      enum.CustomFieldType   `gorm:"size:20;not null" json:"type"`
	Options   []string               `gorm:"type:text;serializer:json" json:"options"`
	Required  bool                   `json:"required"`
	CreatedAt time.Time              `json:"createdAt"`
}

func (d *CustomFieldDefinition) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (CustomFieldDefinition) TableName() string {
	return "custom_field_definitions"
}

// HasOption reports whether v is one of the dropdown options.
func (d *CustomFieldDefinition) HasOption(v string) bool {
	for _, o := range d.Options {
		if o == v {
			return true
		}
	}
	return false
}
