// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level recorded on a profile.
type UserRole string

const (
	// Full access to the admin shell
	RoleAdmin UserRole = "admin"

	// Default role for every other signed-in user
	RoleMember UserRole = "member"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// IsAdmin reports whether r grants admin access.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}
