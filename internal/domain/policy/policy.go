// Package policy holds the single access decision used by every CRM operation.
// It is pure: decisions depend only on the actor, the action and the owner of
// the resource being touched.
package policy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/pkg/apperror"
)

// Actor is the verified identity behind a request
type Actor struct {
	ID   uuid.UUID
	Role enum.Role
}

// Action names an operation guarded by the policy
type Action string

const (
	LeadList     Action = "lead:list"
	LeadCreate   Action = "lead:create"
	LeadRead     Action = "lead:read"
	LeadUpdate   Action = "lead:update"
	LeadDelete   Action = "lead:delete"
	LeadActivity Action = "lead:activity"

	QuotationList   Action = "quotation:list"
	QuotationCreate Action = "quotation:create"
	QuotationRead   Action = "quotation:read"
	QuotationUpdate Action = "quotation:update"
	QuotationSend   Action = "quotation:send"
	QuotationDelete Action = "quotation:delete"

	UserList         Action = "user:list"
	UserRead         Action = "user:read"
	UserUpdate       Action = "user:update"
	UserChangeRole   Action = "user:change_role"
	UserDelete       Action = "user:delete"
	UserSettings     Action = "user:settings"
	UserSecurity     Action = "user:security"
	UserLoginHistory Action = "user:login_history"

	CompanyRead      Action = "company:read"
	CompanyWrite     Action = "company:write"
	CustomFieldWrite Action = "custom_field:write"

	ReportRead Action = "report:read"
	FileUpload Action = "file:upload"
)

var (
	everyone   = []enum.Role{enum.RoleAdmin, enum.RoleManager, enum.RoleEmployee}
	privileged = []enum.Role{enum.RoleAdmin, enum.RoleManager}
	adminOnly  = []enum.Role{enum.RoleAdmin}
)

// rule grants an action to the listed roles, and to the resource owner when owner is set.
type rule struct {
	roles []enum.Role
	owner bool
	what  string
}

var rules = map[Action]rule{
	LeadList:     {roles: everyone, what: "list leads"},
	LeadCreate:   {roles: everyone, what: "create leads"},
	LeadRead:     {roles: privileged, owner: true, what: "access this lead"},
	LeadUpdate:   {roles: privileged, owner: true, what: "update this lead"},
	LeadActivity: {roles: privileged, owner: true, what: "add activities to this lead"},
	LeadDelete:   {roles: privileged, what: "delete leads"},

	QuotationList:   {roles: everyone, what: "list quotations"},
	QuotationCreate: {roles: privileged, owner: true, what: "create quotations for this lead"},
	QuotationRead:   {roles: privileged, owner: true, what: "access this quotation"},
	QuotationUpdate: {roles: privileged, owner: true, what: "update this quotation"},
	QuotationSend:   {roles: privileged, owner: true, what: "send this quotation"},
	QuotationDelete: {roles: privileged, what: "delete quotations"},

	UserList:         {roles: privileged, what: "list users"},
	UserRead:         {roles: privileged, owner: true, what: "access this user"},
	UserUpdate:       {roles: adminOnly, owner: true, what: "update this user"},
	UserChangeRole:   {roles: adminOnly, what: "change user roles"},
	UserDelete:       {roles: adminOnly, what: "delete users"},
	UserSettings:     {owner: true, what: "update these settings"},
	UserSecurity:     {owner: true, what: "update these security settings"},
	UserLoginHistory: {roles: adminOnly, owner: true, what: "view this login history"},

	CompanyRead:      {roles: everyone, what: "view company settings"},
	CompanyWrite:     {roles: privileged, what: "update company settings"},
	CustomFieldWrite: {roles: privileged, what: "manage custom fields"},

	ReportRead: {roles: everyone, what: "view reports"},
	FileUpload: {roles: everyone, what: "upload files"},
}

// Authorize decides whether actor may perform action on a resource owned by owner.
// owner is the lead assignee, the quotation creator or the target user, and may be
// nil for resources without an owner. A denial is an AuthorizationError; callers
// must reject the whole request.
func Authorize(actor Actor, action Action, owner *uuid.UUID) error {
	r, ok := rules[action]
	if !ok {
		return apperror.NewAuthorizationError(
			fmt.Sprintf("Unknown action %s", action), "known action", string(action))
	}
	for _, role := range r.roles {
		if actor.Role == role {
			return nil
		}
	}
	if r.owner && owner != nil && *owner == actor.ID {
		return nil
	}

	return apperror.NewAuthorizationError(
		fmt.Sprintf("User role %s is not authorized to %s", actor.Role, r.what),
		required(r),
		actual(actor, r, owner),
	)
}

// Allowed is Authorize as a boolean.
func Allowed(actor Actor, action Action, owner *uuid.UUID) bool {
	return Authorize(actor, action, owner) == nil
}

// LeadOwnerRestriction returns the assignee every lead query must be limited to,
// or nil when the actor sees all leads.
func LeadOwnerRestriction(actor Actor) *uuid.UUID {
	if actor.Role.IsPrivileged() {
		return nil
	}
	id := actor.ID
	return &id
}

// QuotationOwnerRestriction returns the creator every quotation query must be
// limited to, or nil when the actor sees all quotations.
func QuotationOwnerRestriction(actor Actor) *uuid.UUID {
	if actor.Role.IsPrivileged() {
		return nil
	}
	id := actor.ID
	return &id
}

func required(r rule) string {
	parts := make([]string, 0, len(r.roles)+1)
	for _, role := range r.roles {
		parts = append(parts, "role:"+role.String())
	}
	if r.owner {
		parts = append(parts, "owner")
	}
	return strings.Join(parts, "|")
}

func actual(actor Actor, r rule, owner *uuid.UUID) string {
	got := "role:" + actor.Role.String()
	if !r.owner {
		return got
	}
	if owner == nil {
		return got + ",owner:none"
	}
	return got + ",owner:" + owner.String()
}
