package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
)

// LeadCriteria scopes a lead aggregation
type LeadCriteria struct {
	Range      *TimeRange
	AssignedTo *uuid.UUID
}

// QuotationCriteria scopes a quotation aggregation
type QuotationCriteria struct {
	Range     *TimeRange
	CreatedBy *uuid.UUID
	Status    *enum.QuotationStatus
}

// GroupField is a column leads or quotations can be grouped by
type GroupField string

const (
	GroupByStatus GroupField = "status"
	GroupBySource GroupField = "source"
)

// GroupRow is one group of a grouped count, with the summed total for quotations
type GroupRow struct {
	Key   string
	Count int64
	Total float64
}

// MonthRow is one (year, month) bucket as returned by the store. Sparse.
type MonthRow struct {
	Year  int
	Month int
	Count int64
	Total float64
}

// AssigneeRow rolls up leads per assignee. UserID is nil for unassigned leads.
type AssigneeRow struct {
	UserID    *uuid.UUID
	Name      string
	Leads     int64
	Contacted int64
}

// CreatorRow rolls up quotations per creator
type CreatorRow struct {
	UserID   uuid.UUID
	Name     string
	Count    int64
	Total    float64
	Accepted int64
	Revenue  float64
}

// AnalyticsRepository runs grouped aggregations server-side
type AnalyticsRepository interface {
	CountLeads(ctx context.Context, c LeadCriteria) (int64, error)
	GroupLeads(ctx context.Context, c LeadCriteria, field GroupField) ([]GroupRow, error)
	MonthlyLeads(ctx context.Context, c LeadCriteria) ([]MonthRow, error)
	LeadsByAssignee(ctx context.Context, c LeadCriteria) ([]AssigneeRow, error)

	CountQuotations(ctx context.Context, c QuotationCriteria) (int64, error)
	SumQuotations(ctx context.Context, c QuotationCriteria) (float64, error)
	GroupQuotations(ctx context.Context, c QuotationCriteria, field GroupField) ([]GroupRow, error)
	MonthlyQuotations(ctx context.Context, c QuotationCriteria) ([]MonthRow, error)
	QuotationsByCreator(ctx context.Context, c QuotationCriteria) ([]CreatorRow, error)

	// CountQuotedLeads counts distinct lead ids referenced by matching quotations.
	CountQuotedLeads(ctx context.Context, c QuotationCriteria) (int64, error)
	// MonthlyQuotedLeads counts distinct lead ids per month of quotation creation.
	MonthlyQuotedLeads(ctx context.Context, c QuotationCriteria) ([]MonthRow, error)
}
