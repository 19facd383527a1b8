package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/request"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
)

// SettingsHandler handles company settings and custom field requests
type SettingsHandler struct {
	companyService *service.CompanyService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(companyService *service.CompanyService) *SettingsHandler {
	return &SettingsHandler{companyService: companyService}
}

// GetCompany returns the company profile with its custom field definitions
func (h *SettingsHandler) GetCompany(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	company, err := h.companyService.GetCompany(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"company": company})
}

// UpdateCompany updates the company profile
func (h *SettingsHandler) UpdateCompany(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req request.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	company, err := h.companyService.UpdateCompany(c.Request.Context(), a, &service.CompanyPatch{
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		ZipCode:  req.ZipCode,
		Country:  req.Country,
		Phone:    req.Phone,
		Website:  req.Website,
		TaxID:    req.TaxID,
		Industry: req.Industry,
		Logo:     req.Logo,
		About:    req.About,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"company": company})
}

// UploadLogo replaces the company logo with the multipart "logo" file
func (h *SettingsHandler) UploadLogo(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	file, closeFile, err := formFile(c, "logo")
	defer closeFile()
	if err != nil {
		response.Error(c, err)
		return
	}

	url, err := h.companyService.UploadLogo(c.Request.Context(), a, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"logo": url})
}

func (h *SettingsHandler) AddCustomField(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req request.CustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	field, err := h.companyService.AddCustomField(c.Request.Context(), a, &service.CustomFieldInput{
		Name:     req.Name,
		Entity:   enum.CustomFieldEntity(req.Entity),
		Type:     enum.CustomFieldType(req.Type),
		Options:  req.Options,
		Required: req.Required,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"customField": field})
}

func (h *SettingsHandler) UpdateCustomField(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "fieldId", "Custom field")
	if !ok {
		return
	}
	var req request.UpdateCustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	patch := &service.CustomFieldPatch{Name: req.Name, Options: req.Options, Required: req.Required}
	if req.Entity != nil {
		e := enum.CustomFieldEntity(*req.Entity)
		patch.Entity = &e
	}
	if req.Type != nil {
		t := enum.CustomFieldType(*req.Type)
		patch.Type = &t
	}

	field, err := h.companyService.UpdateCustomField(c.Request.Context(), a, id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"customField": field})
}

func (h *SettingsHandler) DeleteCustomField(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "fieldId", "Custom field")
	if !ok {
		return
	}
	if err := h.companyService.DeleteCustomField(c.Request.Context(), a, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Custom field deleted successfully")
}
