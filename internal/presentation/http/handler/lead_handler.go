package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/query"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/request"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
	"github.com/sangkips/crm-backend/pkg/apperror"
)

// LeadHandler handles lead HTTP requests
type LeadHandler struct {
	leadService   *service.LeadService
	reportService *service.ReportService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadService *service.LeadService, reportService *service.ReportService) *LeadHandler {
	return &LeadHandler{leadService: leadService, reportService: reportService}
}

// List handles listing leads
// @Summary List Leads
// @Tags leads
// @Security BearerAuth
// @Param search query string false "Matches name, email or company"
// @Param status query string false "Lead status"
// @Param source query string false "Lead source"
// @Param assignedTo query string false "User id, or 'unassigned'"
// @Param sortBy query string false "createdAt, updatedAt, name, email, company, status, source"
// @Param sortOrder query string false "asc or desc"
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var params query.LeadParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, err)
		return
	}

	page, err := h.leadService.ListLeads(c.Request.Context(), a, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "leads", page.Leads, page.Pagination)
}

// Stats returns lead counts and the twelve month series
func (h *LeadHandler) Stats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.reportService.LeadStats(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}

func (h *LeadHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Lead")
	if !ok {
		return
	}
	lead, err := h.leadService.GetLead(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"lead": lead})
}

// Create handles creating a lead
// @Summary Create Lead
// @Tags leads
// @Security BearerAuth
// @Param request body request.CreateLeadRequest true "Lead"
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req request.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	input := &service.LeadInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
		Position:     req.Position,
		Address:      req.Address,
		Source:       enum.LeadSource(req.Source),
		Status:       enum.LeadStatus(req.Status),
		Notes:        req.Notes,
		CustomFields: req.CustomFields,
	}
	if req.AssignedTo != "" {
		id, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			response.Error(c, invalidAssignee())
			return
		}
		input.AssignedTo = &id
	}

	lead, err := h.leadService.CreateLead(c.Request.Context(), a, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"lead": lead})
}

// Update applies a partial change. Sending assignedTo as "" or
// "unassigned" clears the assignee.
func (h *LeadHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Lead")
	if !ok {
		return
	}
	var req request.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	patch := &service.LeadPatch{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
		Position:     req.Position,
		Address:      req.Address,
		Notes:        req.Notes,
		CustomFields: req.CustomFields,
	}
	if req.Source != nil {
		s := enum.LeadSource(*req.Source)
		patch.Source = &s
	}
	if req.Status != nil {
		s := enum.LeadStatus(*req.Status)
		patch.Status = &s
	}
	if req.AssignedTo != nil {
		raw := strings.TrimSpace(*req.AssignedTo)
		if raw == "" || strings.EqualFold(raw, "unassigned") {
			patch.ClearAssignee = true
		} else {
			uid, err := uuid.Parse(raw)
			if err != nil {
				response.Error(c, invalidAssignee())
				return
			}
			patch.AssignedTo = &uid
		}
	}

	lead, err := h.leadService.UpdateLead(c.Request.Context(), a, id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"lead": lead})
}

func (h *LeadHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Lead")
	if !ok {
		return
	}
	if err := h.leadService.DeleteLead(c.Request.Context(), a, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Lead deleted successfully")
}

// AddActivity appends an activity and returns the updated lead
func (h *LeadHandler) AddActivity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Lead")
	if !ok {
		return
	}
	var req request.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	due, err := parseTime("dueDate", req.DueDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	lead, err := h.leadService.AddActivity(c.Request.Context(), a, id, &service.ActivityInput{
		Type:        enum.ActivityType(req.Type),
		Description: req.Description,
		DueDate:     due,
		Completed:   req.Completed,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"lead": lead})
}

func invalidAssignee() error {
	return apperror.NewValidationError([]apperror.FieldError{{Field: "assignedTo", Message: "must be a valid id"}})
}
