// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package identity implements the application-level user record layer.

It owns the mapping between opaque auth identity ids (issued by the token
issuer at signup and never mutated afterwards) and application User rows,
creating rows lazily on first access when they are missing.

# Architecture

This layer is the "Truth" of the system for user records. The resolver is
deliberately defensive: the backing table has accumulated duplicate rows per
identity in the past, so lookups surface every match and selection is an
explicit, observable policy rather than an implicit LIMIT 1.
*/
package identity

import (
	"time"

	"github.com/classraise/classraise/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Classraise platform.
type User struct {
	ID           string       `json:"id"`
	AuthID       string       `json:"-"` // Opaque identity id; internal linkage only.
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.UserRole `json:"role"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	AvatarKey    string       `json:"-"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the users domain.
const (
	FieldAuthID    = "auth_id"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldRole      = "role"
)
