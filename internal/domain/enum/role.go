package enum

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Roles lists every role in privilege order.
var Roles = []Role{RoleAdmin, RoleManager, RoleEmployee}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// IsPrivileged reports whether the role sees records regardless of ownership.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleManager
}
