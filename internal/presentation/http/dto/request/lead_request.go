package request

// CreateLeadRequest represents the payload for creating a lead
type CreateLeadRequest struct {
	Name         string                 `json:"name" binding:"required,max=255"`
	Email        string                 `json:"email" binding:"required,email"`
	Phone        string                 `json:"phone" binding:"max=50"`
	Company      string                 `json:"company" binding:"required,max=255"`
	Position     string                 `json:"position" binding:"max=255"`
	Address      string                 `json:"address"`
	Source       string                 `json:"source" binding:"omitempty,oneof=website referral social_media email_campaign event other"`
	Status       string                 `json:"status" binding:"omitempty,oneof=new contacted qualified proposal negotiation won lost"`
	AssignedTo   string                 `json:"assignedTo" binding:"omitempty,uuid"`
	Notes        string                 `json:"notes"`
	CustomFields map[string]interface{} `json:"customFields"`
}

// UpdateLeadRequest carries lead changes. An empty assignedTo unassigns the lead.
type UpdateLeadRequest struct {
	Name         *string                `json:"name" binding:"omitempty,min=1,max=255"`
	Email        *string                `json:"email" binding:"omitempty,email"`
	Phone        *string                `json:"phone" binding:"omitempty,max=50"`
	Company      *string                `json:"company" binding:"omitempty,min=1,max=255"`
	Position     *string                `json:"position" binding:"omitempty,max=255"`
	Address      *string                `json:"address"`
	Source       *string                `json:"source" binding:"omitempty,oneof=website referral social_media email_campaign event other"`
	Status       *string                `json:"status" binding:"omitempty,oneof=new contacted qualified proposal negotiation won lost"`
	AssignedTo   *string                `json:"assignedTo" binding:"omitempty,max=36"`
	Notes        *string                `json:"notes"`
	CustomFields map[string]interface{} `json:"customFields"`
}

// ActivityRequest represents the payload for appending an activity
type ActivityRequest struct {
	Type        string `json:"type" binding:"required,oneof=note call email meeting task status_change"`
	Description string `json:"description" binding:"required"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
}
