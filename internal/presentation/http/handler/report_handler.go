package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
)

// ReportHandler serves the report endpoints
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Leads godoc
// @Summary Leads report
// @Tags reports
// @Security BearerAuth
// @Param startDate query string false "YYYY-MM-DD or RFC 3339, defaults to one month ago"
// @Param endDate query string false "YYYY-MM-DD or RFC 3339, defaults to now"
// @Router /reports/leads [get]
func (h *ReportHandler) Leads(c *gin.Context) {
	serveRange(c, func(ctx context.Context, a policy.Actor, in service.RangeInput) (interface{}, error) {
		return h.reportService.LeadsReport(ctx, a, in)
	})
}

func (h *ReportHandler) Quotations(c *gin.Context) {
	serveRange(c, func(ctx context.Context, a policy.Actor, in service.RangeInput) (interface{}, error) {
		return h.reportService.QuotationsReport(ctx, a, in)
	})
}

func (h *ReportHandler) Conversion(c *gin.Context) {
	serveRange(c, func(ctx context.Context, a policy.Actor, in service.RangeInput) (interface{}, error) {
		return h.reportService.ConversionReport(ctx, a, in)
	})
}

func (h *ReportHandler) SalesPerformance(c *gin.Context) {
	serveRange(c, func(ctx context.Context, a policy.Actor, in service.RangeInput) (interface{}, error) {
		return h.reportService.SalesPerformance(ctx, a, in)
	})
}

// DashboardStats returns the headline counters
func (h *ReportHandler) DashboardStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.reportService.DashboardStats(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}

func serveRange(c *gin.Context, build func(context.Context, policy.Actor, service.RangeInput) (interface{}, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	report, err := build(c.Request.Context(), a, service.RangeInput{
		Start: c.Query("startDate"),
		End:   c.Query("endDate"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"report": report})
}
