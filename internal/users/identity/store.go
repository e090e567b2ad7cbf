// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package identity

import "context"

// # User Data Access

// Repository defines the data access contract for user accounts.
type Repository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByAuthID returns every account linked to the given auth identity id,
		ordered oldest-first.

		Description: Returns a slice rather than a single row because duplicate
		rows per identity are a known data-quality hazard. Callers decide the
		selection policy; an empty slice maps to a NotFound error.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - []*User: All matching rows, deterministic order
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByAuthID(context context.Context, authID string) ([]*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists changes to mutable profile fields (names, avatar, role).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error
}
