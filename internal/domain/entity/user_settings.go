package entity

import "time"

// UserSettings holds per-user application preferences
type UserSettings struct {
	Language           string `gorm:"size:50" json:"language"`
	Timezone           string `gorm:"size:50" json:"timezone"`
	EmailNotifications bool   `json:"emailNotifications"`
	SMSNotifications   bool   `gorm:"column:sms_notifications" json:"smsNotifications"`
	AppNotifications   bool   `json:"appNotifications"`
	Theme              string `gorm:"size:20" json:"theme"`
}

// DefaultUserSettings returns the preferences given to new accounts
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Language:           "English",
		Timezone:           "UTC",
		EmailNotifications: true,
		SMSNotifications:   false,
		AppNotifications:   true,
		Theme:              "system",
	}
}

// SecuritySettings holds per-user security toggles
type SecuritySettings struct {
	TwoFactorAuth       bool      `json:"twoFactorAuth"`
	SessionTimeout      bool      `json:"sessionTimeout"`
	LoginNotifications  bool      `json:"loginNotifications"`
	PasswordExpiry      bool      `json:"passwordExpiry"`
	PasswordLastChanged time.Time `json:"passwordLastChanged"`
}

func DefaultSecuritySettings(now time.Time) SecuritySettings {
	return SecuritySettings{
		TwoFactorAuth:       false,
		SessionTimeout:      true,
		LoginNotifications:  true,
		PasswordExpiry:      true,
		PasswordLastChanged: now,
	}
}
