package pagination

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params represents the resolved page of a list request
type Params struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Default returns the first page with the default page size
func Default() Params {
	return Params{Page: DefaultPage, Limit: DefaultLimit}
}

// Normalize clamps parameters into valid ranges
func (p *Params) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset calculates the number of records to skip
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata returned next to a page of records
type Pagination struct {
	Count       int   `json:"count"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

// New builds the metadata for a page holding count records out of total
func New(p Params, count int, total int64) Pagination {
	return Pagination{
		Count:       count,
		Total:       total,
		TotalPages:  TotalPages(total, p.Limit),
		CurrentPage: p.Page,
	}
}

// TotalPages returns ceil(total/limit), or 0 for a non-positive limit
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
