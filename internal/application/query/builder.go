// Package query turns list request parameters into repository filters,
// folding in the ownership restriction the access policy imposes.
package query

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/pagination"
)

const (
	// All disables an equality filter.
	All = "all"
	// Unassigned matches leads without an assignee.
	Unassigned = "unassigned"
)

// LeadParams are the raw list parameters accepted for leads
type LeadParams struct {
	Search     string `form:"search"`
	Status     string `form:"status"`
	Source     string `form:"source"`
	AssignedTo string `form:"assignedTo"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// QuotationParams are the raw list parameters accepted for quotations
type QuotationParams struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	Lead      string `form:"lead"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

var leadSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"email":     "email",
	"company":   "company",
	"status":    "status",
	"source":    "source",
}

var quotationSortColumns = map[string]string{
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"quotationNumber": "quotation_number",
	"date":            "date",
	"validUntil":      "valid_until",
	"total":           "total",
	"status":          "status",
}

// BuildLeadFilter validates p and returns the filter for actor.
// Employees are always restricted to leads assigned to them.
func BuildLeadFilter(actor policy.Actor, p LeadParams) (*repository.LeadFilter, error) {
	var fieldErrs []apperror.FieldError
	f := &repository.LeadFilter{
		Search:  strings.TrimSpace(p.Search),
		OwnerID: policy.LeadOwnerRestriction(actor),
		Sort:    buildSort(leadSortColumns, p.SortBy, p.SortOrder),
		Page:    buildPage(p.Page, p.Limit),
	}

	if isSet(p.Status) {
		s := enum.LeadStatus(p.Status)
		if !s.IsValid() {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "status", Message: "unknown lead status " + p.Status})
		}
		f.Status = &s
	}
	if isSet(p.Source) {
		s := enum.LeadSource(p.Source)
		if !s.IsValid() {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "source", Message: "unknown lead source " + p.Source})
		}
		f.Source = &s
	}

	switch {
	case !isSet(p.AssignedTo):
		f.Assignee = repository.AssigneeFilter{Mode: repository.AssigneeAny}
	case p.AssignedTo == Unassigned:
		f.Assignee = repository.AssigneeFilter{Mode: repository.AssigneeNone}
	default:
		id, err := uuid.Parse(p.AssignedTo)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "assignedTo", Message: "must be all, unassigned or a user id"})
		}
		f.Assignee = repository.AssigneeFilter{Mode: repository.AssigneeUser, UserID: id}
	}

	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}
	return f, nil
}

// BuildQuotationFilter validates p and returns the filter for actor.
// Employees are always restricted to quotations they created.
func BuildQuotationFilter(actor policy.Actor, p QuotationParams) (*repository.QuotationFilter, error) {
	var fieldErrs []apperror.FieldError
	f := &repository.QuotationFilter{
		Search:    strings.TrimSpace(p.Search),
		CreatorID: policy.QuotationOwnerRestriction(actor),
		Sort:      buildSort(quotationSortColumns, p.SortBy, p.SortOrder),
		Page:      buildPage(p.Page, p.Limit),
	}

	if isSet(p.Status) {
		s := enum.QuotationStatus(p.Status)
		if !s.IsValid() {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "status", Message: "unknown quotation status " + p.Status})
		}
		f.Status = &s
	}
	if isSet(p.Lead) {
		id, err := uuid.Parse(p.Lead)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "lead", Message: "must be a lead id"})
		}
		f.LeadID = &id
	}

	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}
	return f, nil
}

func isSet(v string) bool {
	return v != "" && v != All
}

func buildSort(columns map[string]string, field, order string) repository.Sort {
	col, ok := columns[field]
	if !ok {
		col = columns["createdAt"]
	}
	return repository.Sort{Column: col, Desc: !strings.EqualFold(order, "asc")}
}

func buildPage(page, limit int) pagination.Params {
	p := pagination.Params{Page: page, Limit: limit}
	p.Normalize()
	return p
}
