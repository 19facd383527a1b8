package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"gorm.io/gorm"
)

// MaxLoginHistory is the number of login entries retained per user.
const MaxLoginHistory = 10

// User represents an account that can sign in to the CRM
type User struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Name      string           `gorm:"size:255;not null" json:"name"`
	Email     string           `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string           `gorm:"size:255;not null" json:"-"`
	Role      enum.Role        `gorm:"size:20;not null;index" json:"role"`
	Position  string           `gorm:"size:255" json:"position"`
	Phone     string           `gorm:"size:50" json:"phone"`
	Bio       string           `gorm:"type:text" json:"bio"`
	Avatar    string           `gorm:"size:1024" json:"avatar"`
	Settings  UserSettings     `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Security  SecuritySettings `gorm:"embedded;embeddedPrefix:security_" json:"security"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	// Relationships
	LoginHistory []LoginHistory `gorm:"foreignKey:UserID" json:"loginHistory,omitempty"`
}

// BeforeCreate generates a UUID and fills in preference defaults before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enum.RoleEmployee
	}
	if u.Settings == (UserSettings{}) {
		u.Settings = DefaultUserSettings()
	}
	if u.Security == (SecuritySettings{}) {
		u.Security = DefaultSecuritySettings(time.Now())
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// LoginHistory is a single sign-in record for a user
type LoginHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Device    string    `gorm:"size:100" json:"device"`
	Browser   string    `gorm:"size:100" json:"browser"`
	IP        string    `gorm:"size:64" json:"ip"`
	Location  string    `gorm:"size:255" json:"location"`
	Timestamp time.Time `gorm:"column:logged_at;not null;index" json:"timestamp"`
}

func (h *LoginHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Location == "" {
		h.Location = "Unknown"
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	return nil
}

func (LoginHistory) TableName() string {
	return "user_login_history"
}
