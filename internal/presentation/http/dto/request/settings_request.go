package request

// CompanyRequest carries company profile changes. Custom fields have
// their own endpoints and are ignored here.
type CompanyRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Address  *string `json:"address"`
	City     *string `json:"city" binding:"omitempty,max=255"`
	State    *string `json:"state" binding:"omitempty,max=255"`
	ZipCode  *string `json:"zipCode" binding:"omitempty,max=50"`
	Country  *string `json:"country" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
	Website  *string `json:"website" binding:"omitempty,max=255"`
	TaxID    *string `json:"taxId" binding:"omitempty,max=100"`
	Industry *string `json:"industry" binding:"omitempty,max=255"`
	Logo     *string `json:"logo" binding:"omitempty,max=1024"`
	About    *string `json:"about"`
}

// CustomFieldRequest defines a custom field
type CustomFieldRequest struct {
	Name     string   `json:"name" binding:"required,max=255"`
	Entity   string   `json:"entity" binding:"required,oneof=lead quotation client"`
	Type     string   `json:"type" binding:"required,oneof=text number date dropdown checkbox"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
}

// UpdateCustomFieldRequest carries custom field changes
type UpdateCustomFieldRequest struct {
	Name     *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Entity   *string  `json:"entity" binding:"omitempty,oneof=lead quotation client"`
	Type     *string  `json:"type" binding:"omitempty,oneof=text number date dropdown checkbox"`
	Options  []string `json:"options"`
	Required *bool    `json:"required"`
}
