package auth

import "github.com/frahmantamala/electrotrack/internal/core/role"

// PermissionChecker answers the role-level questions that do not depend on
// a particular record.
type PermissionChecker interface {
	CanClockInOut(u *User) bool
	CanSubmitMaterialRequest(u *User) bool
	CanViewManagement(u *User) bool
	CanListUsers(u *User) bool
	CanManageUsers(u *User) bool
	HasAnyRole(u *User, roles ...role.Role) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

// CanClockInOut is false for admins and supervisors, who do not keep
// attendance of their own.
func (c *DefaultPermissionChecker) CanClockInOut(u *User) bool {
	return u != nil && !u.Role.IsManagement()
}

func (c *DefaultPermissionChecker) CanSubmitMaterialRequest(u *User) bool {
	return u != nil && !u.Role.IsManagement()
}

func (c *DefaultPermissionChecker) CanViewManagement(u *User) bool {
	return c.HasAnyRole(u, role.Admin, role.Supervisor)
}

func (c *DefaultPermissionChecker) CanListUsers(u *User) bool {
	return c.HasAnyRole(u, role.Admin, role.Supervisor)
}

func (c *DefaultPermissionChecker) CanManageUsers(u *User) bool {
	return c.HasAnyRole(u, role.Admin)
}

func (c *DefaultPermissionChecker) HasAnyRole(u *User, roles ...role.Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
