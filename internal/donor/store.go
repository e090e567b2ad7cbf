// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donor

import "context"

// # Profile Data Access

// Repository defines the persistent data access contract for donor profiles.
type Repository interface {

	/*
		FindByID returns the profile with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Profile: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Profile, error)

	/*
		FindByUserID returns the profile owned by the given user account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *Profile: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByUserID(context context.Context, userID string) (*Profile, error)

	/*
		Provision invokes the server-side get-or-create procedure.

		Description: The procedure runs with elevated database privileges and
		resolves the lookup-or-create race atomically. It is the preferred
		creation path; Create below is the fallback when the procedure itself
		is unavailable.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - isAnonymous: bool

		Returns:
		  - *Profile: The existing or freshly provisioned profile
		  - error: Procedure or connectivity failures
	*/
	Provision(context context.Context, userID string, isAnonymous bool) (*Profile, error)

	/*
		Create inserts a profile row directly.

		Parameters:
		  - context: context.Context
		  - profile: *Profile

		Returns:
		  - error: Unique violations (concurrent create) or persistence failures
	*/
	Create(context context.Context, profile *Profile) error

	/*
		UpdateAnonymity flips the public-visibility preference of a profile.

		Parameters:
		  - context: context.Context
		  - id: string
		  - isAnonymous: bool

		Returns:
		  - error: Persistence failures
	*/
	UpdateAnonymity(context context.Context, id string, isAnonymous bool) error
}

// # Hint Cache Access

// Cache defines the volatile hint-cache contract for donor profiles.
//
// Absence is not an error: Get returns (nil, nil) on a miss so callers can
// distinguish "no hint" from "cache backend down".
type Cache interface {

	/*
		Get returns the cached profile for an auth identity id, or nil on miss.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - *CachedProfile: Envelope with fetch timestamp, nil when absent
		  - error: Cache connectivity failures only
	*/
	Get(context context.Context, authID string) (*CachedProfile, error)

	/*
		Set stores a verified profile under the auth identity id.

		Parameters:
		  - context: context.Context
		  - authID: string
		  - profile: *Profile

		Returns:
		  - error: Cache write failures
	*/
	Set(context context.Context, authID string, profile *Profile) error

	/*
		Remove purges the cached profile and the setup-complete flag.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - error: Cache delete failures
	*/
	Remove(context context.Context, authID string) error

	/*
		MarkSetupComplete records that this identity has finished donor
		onboarding, so repeat visits skip the provisioning prompt.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - error: Cache write failures
	*/
	MarkSetupComplete(context context.Context, authID string) error

	/*
		IsSetupComplete reports whether the onboarding flag is set.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - bool: Flag state, false on miss
		  - error: Cache connectivity failures only
	*/
	IsSetupComplete(context context.Context, authID string) (bool, error)
}
