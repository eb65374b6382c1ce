package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can approve time entries
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// PermissionContext describes the authenticated caller. It is built from the
// access token once per request.
type PermissionContext struct {
	UserID     string
	EmployeeID *string
	CompanyID  *string
	Role       Role
}

// IsManager checks if caller is manager or owner
func (p PermissionContext) IsManager() bool {
	return p.Role == RoleManager || p.Role == RoleOwner
}

// Relationship returns how the caller relates to the employee owning a record.
func (p PermissionContext) Relationship(employeeID string) Relationship {
	if p.EmployeeID != nil && *p.EmployeeID == employeeID {
		return RelationshipSelf
	}
	if p.IsManager() {
		return RelationshipManager
	}
	return RelationshipOther
}
