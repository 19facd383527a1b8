package request

// UpdateUserRequest carries profile changes. Absent fields are kept.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin manager employee"`
	Position *string `json:"position" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
	Bio      *string `json:"bio"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=1024"`
}

// SettingsRequest carries preference changes
type SettingsRequest struct {
	Language           *string `json:"language" binding:"omitempty,max=20"`
	Timezone           *string `json:"timezone" binding:"omitempty,max=64"`
	EmailNotifications *bool   `json:"emailNotifications"`
	SMSNotifications   *bool   `json:"smsNotifications"`
	AppNotifications   *bool   `json:"appNotifications"`
	Theme              *string `json:"theme" binding:"omitempty,oneof=light dark system"`
}

// SecurityRequest carries security toggle changes
type SecurityRequest struct {
	TwoFactorAuth      *bool `json:"twoFactorAuth"`
	SessionTimeout     *bool `json:"sessionTimeout"`
	LoginNotifications *bool `json:"loginNotifications"`
	PasswordExpiry     *bool `json:"passwordExpiry"`
}
