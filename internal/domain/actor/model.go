package actor

import "errors"

// Role constants. Roles form a closed set.
const (
	RolePlatformAdmin = "platform_admin"
	RoleAcademyAdmin  = "academy_admin"
	RoleStaff         = "staff"
	RoleStudent       = "student"
	RoleGuardian      = "guardian"
)

// Staff kind constants. Only meaningful when Role is staff.
const (
	StaffCoach     = "coach"
	StaffFrontDesk = "front_desk"
	StaffManager   = "manager"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RolePlatformAdmin, RoleAcademyAdmin, RoleStaff, RoleStudent, RoleGuardian}

// ValidStaffKinds contains all valid staff kind values.
var ValidStaffKinds = []string{StaffCoach, StaffFrontDesk, StaffManager}

// Domain errors
var (
	ErrInvalidRole        = errors.New("role must be one of: platform_admin, academy_admin, staff, student, guardian")
	ErrInvalidStaffKind   = errors.New("staff kind must be one of: coach, front_desk, manager")
	ErrStaffKindForbidden = errors.New("staff kind is only valid for the staff role")
	ErrMissingTenant      = errors.New("actor must belong to a tenant")
	ErrTenantForbidden    = errors.New("platform admins are tenant-less")
)

// Actor is an authenticated identity on the platform. Every actor belongs to
// exactly one tenant except platform admins, who are tenant-less.
type Actor struct {
	ID        string
	Role      string
	StaffKind string
	TenantID  string
}

// Validate checks the role, staff kind, and tenant ownership rules.
// PRE: Actor struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Actor) Validate() error {
	if !isValidRole(a.Role) {
		return ErrInvalidRole
	}
	if a.Role == RoleStaff {
		if !isValidStaffKind(a.StaffKind) {
			return ErrInvalidStaffKind
		}
	} else if a.StaffKind != "" {
		return ErrStaffKindForbidden
	}
	if a.Role == RolePlatformAdmin {
		if a.TenantID != "" {
			return ErrTenantForbidden
		}
		return nil
	}
	if a.TenantID == "" {
		return ErrMissingTenant
	}
	return nil
}

// IsPlatformAdmin returns true if the actor has the platform admin role.
// INVARIANT: Actor fields are not mutated
func (a Actor) IsPlatformAdmin() bool {
	return a.Role == RolePlatformAdmin
}

// IsAcademyAdmin returns true if the actor has the academy admin role.
// INVARIANT: Actor fields are not mutated
func (a Actor) IsAcademyAdmin() bool {
	return a.Role == RoleAcademyAdmin
}

// SeesBilling returns true if the actor's role surfaces billing information
// (dashboards, the delinquency badge).
// INVARIANT: Actor fields are not mutated
func (a Actor) SeesBilling() bool {
	return a.Role == RolePlatformAdmin || a.Role == RoleAcademyAdmin ||
		(a.Role == RoleStaff && a.StaffKind == StaffManager)
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func isValidStaffKind(kind string) bool {
	for _, k := range ValidStaffKinds {
		if k == kind {
			return true
		}
	}
	return false
}
