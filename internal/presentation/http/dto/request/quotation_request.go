package request

// ClientRequest is the client block of a quotation
type ClientRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"required,email"`
	Company string `json:"company" binding:"required,max=255"`
	Address string `json:"address"`
}

// QuotationItemRequest is one line of a quotation
type QuotationItemRequest struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"gte=1"`
	UnitPrice   float64 `json:"unitPrice" binding:"gte=0"`
	Amount      float64 `json:"amount" binding:"gte=0"`
}

// CreateQuotationRequest represents the payload for creating a quotation.
// Missing totals are computed from the items.
type CreateQuotationRequest struct {
	Lead            string                 `json:"lead" binding:"required,uuid"`
	QuotationNumber string                 `json:"quotationNumber" binding:"max=50"`
	Client          ClientRequest          `json:"client" binding:"required"`
	Date            string                 `json:"date"`
	ValidUntil      string                 `json:"validUntil" binding:"required"`
	Items           []QuotationItemRequest `json:"items" binding:"required,min=1,dive"`
	Subtotal        float64                `json:"subtotal" binding:"gte=0"`
	Tax             float64                `json:"tax" binding:"gte=0"`
	Total           float64                `json:"total" binding:"gte=0"`
	Status          string                 `json:"status" binding:"omitempty,oneof=draft sent accepted rejected expired"`
	Notes           string                 `json:"notes"`
	Terms           string                 `json:"terms"`
	CustomFields    map[string]interface{} `json:"customFields"`
}

// UpdateQuotationRequest carries quotation changes. Items, when present,
// replace every line.
type UpdateQuotationRequest struct {
	QuotationNumber *string                `json:"quotationNumber" binding:"omitempty,min=1,max=50"`
	Client          *ClientRequest         `json:"client"`
	Date            *string                `json:"date"`
	ValidUntil      *string                `json:"validUntil"`
	Items           []QuotationItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	Subtotal        *float64               `json:"subtotal" binding:"omitempty,gte=0"`
	Tax             *float64               `json:"tax" binding:"omitempty,gte=0"`
	Total           *float64               `json:"total" binding:"omitempty,gte=0"`
	Status          *string                `json:"status" binding:"omitempty,oneof=draft sent accepted rejected expired"`
	Notes           *string                `json:"notes"`
	Terms           *string                `json:"terms"`
	CustomFields    map[string]interface{} `json:"customFields"`
}
