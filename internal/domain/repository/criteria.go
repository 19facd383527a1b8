package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/pkg/pagination"
)

// AssigneeMode selects how the assignedTo column is filtered
type AssigneeMode int

const (
	// AssigneeAny applies no assignee filter.
	AssigneeAny AssigneeMode = iota
	// AssigneeNone matches leads with no assignee.
	AssigneeNone
	// AssigneeUser matches leads assigned to UserID.
	AssigneeUser
)

// AssigneeFilter is the request-level assignedTo filter
type AssigneeFilter struct {
	Mode   AssigneeMode
	UserID uuid.UUID
}

// Sort is a single whitelisted column and a direction
type Sort struct {
	Column string
	Desc   bool
}

// TimeRange is an inclusive created_at window
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Page carries the resolved page parameters of a list query
type Page = pagination.Params
