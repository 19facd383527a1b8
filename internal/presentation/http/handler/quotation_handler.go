package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/query"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/request"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
	"github.com/sangkips/crm-backend/pkg/apperror"
)

// QuotationHandler handles quotation-related HTTP requests
type QuotationHandler struct {
	quotationService *service.QuotationService
	reportService    *service.ReportService
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(quotationService *service.QuotationService, reportService *service.ReportService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService, reportService: reportService}
}

// List handles listing quotations
// @Summary List Quotations
// @Tags quotations
// @Security BearerAuth
// @Param search query string false "Matches number, client name or company"
// @Param status query string false "Quotation status"
// @Param lead query string false "Lead id"
// @Router /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var params query.QuotationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, err)
		return
	}

	page, err := h.quotationService.ListQuotations(c.Request.Context(), a, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "quotations", page.Quotations, page.Pagination)
}

// Stats returns quotation counts, totals and the twelve month series
func (h *QuotationHandler) Stats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.reportService.QuotationStats(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}

func (h *QuotationHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Quotation")
	if !ok {
		return
	}
	q, err := h.quotationService.GetQuotation(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"quotation": q})
}

// Create handles creating a quotation
// @Summary Create Quotation
// @Tags quotations
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replays the first response for retries"
// @Param request body request.CreateQuotationRequest true "Quotation"
// @Router /quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req request.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	leadID, err := uuid.Parse(req.Lead)
	if err != nil {
		response.Error(c, apperror.NewNotFoundError("Lead"))
		return
	}
	date, err := parseTime("date", req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	validUntil, err := parseTime("validUntil", req.ValidUntil)
	if err != nil {
		response.Error(c, err)
		return
	}
	if validUntil == nil {
		response.Error(c, apperror.NewValidationError([]apperror.FieldError{{Field: "validUntil", Message: "is required"}}))
		return
	}

	q, err := h.quotationService.CreateQuotation(c.Request.Context(), a, &service.CreateQuotationInput{
		LeadID:          leadID,
		QuotationNumber: req.QuotationNumber,
		Client:          toClient(req.Client),
		Date:            date,
		ValidUntil:      *validUntil,
		Items:           toItemInputs(req.Items),
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Total:           req.Total,
		Status:          enum.QuotationStatus(req.Status),
		Notes:           req.Notes,
		Terms:           req.Terms,
		CustomFields:    req.CustomFields,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"quotation": q})
}

// Update applies a partial change. Moving the status to accepted or rejected
// also settles the lead.
func (h *QuotationHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Quotation")
	if !ok {
		return
	}
	var req request.UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	input := &service.UpdateQuotationInput{
		QuotationNumber: req.QuotationNumber,
		Items:           toItemInputs(req.Items),
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Total:           req.Total,
		Notes:           req.Notes,
		Terms:           req.Terms,
		CustomFields:    req.CustomFields,
	}
	if req.Client != nil {
		cl := toClient(*req.Client)
		input.Client = &cl
	}
	if req.Status != nil {
		s := enum.QuotationStatus(*req.Status)
		input.Status = &s
	}
	var err error
	if req.Date != nil {
		if input.Date, err = parseTime("date", *req.Date); err != nil {
			response.Error(c, err)
			return
		}
	}
	if req.ValidUntil != nil {
		if input.ValidUntil, err = parseTime("validUntil", *req.ValidUntil); err != nil {
			response.Error(c, err)
			return
		}
	}

	q, err := h.quotationService.UpdateQuotation(c.Request.Context(), a, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"quotation": q})
}

func (h *QuotationHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Quotation")
	if !ok {
		return
	}
	if err := h.quotationService.DeleteQuotation(c.Request.Context(), a, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Quotation deleted successfully")
}

// Send marks the quotation sent and emails the client a link to its PDF
func (h *QuotationHandler) Send(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Quotation")
	if !ok {
		return
	}
	q, err := h.quotationService.SendQuotation(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Quotation sent successfully", "quotation": q})
}

func toClient(r request.ClientRequest) entity.Client {
	return entity.Client{Name: r.Name, Email: r.Email, Company: r.Company, Address: r.Address}
}

func toItemInputs(items []request.QuotationItemRequest) []service.QuotationItemInput {
	if items == nil {
		return nil
	}
	out := make([]service.QuotationItemInput, len(items))
	for i, it := range items {
		out[i] = service.QuotationItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		}
	}
	return out
}
