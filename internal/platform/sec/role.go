// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can create and manage classroom funding projects
	RoleTeacher UserRole = "teacher"

	// Default role for standard registered users; can wishlist and donate
	RoleDonor UserRole = "donor"
)

// ParseRole maps an arbitrary role string onto a known [UserRole].
// Unknown or empty values default to [RoleDonor].
func ParseRole(raw string) UserRole {
	switch UserRole(raw) {
	case RoleAdmin:
		return RoleAdmin
	case RoleTeacher:
		return RoleTeacher
	case RoleDonor:
		return RoleDonor
	default:
		return RoleDonor
	}
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleTeacher:
		return 20
	case RoleDonor:
		return 10
	default:
		return 0
	}
}
