// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package wishlist

import (
	"context"
	"time"

	"github.com/classraise/classraise/internal/core/project"
)

// # Entry Data Access

// Repository defines the persistent data access contract for wishlist entries.
type Repository interface {

	/*
		Find returns the entry linking a donor to a project.

		Parameters:
		  - context: context.Context
		  - donorID: string
		  - projectID: string

		Returns:
		  - *Entry: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	Find(context context.Context, donorID, projectID string) (*Entry, error)

	/*
		Insert adds an entry row directly.

		Description: A unique violation on (donorid, projectid) means the
		entry already exists; callers treat that as idempotent success.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Constraint or persistence failures
	*/
	Insert(context context.Context, entry *Entry) error

	/*
		Toggle invokes the server-side toggle procedure.

		Description: The procedure flips membership atomically under elevated
		privileges and reports the resulting state.

		Parameters:
		  - context: context.Context
		  - donorID: string
		  - projectID: string

		Returns:
		  - bool: True when the entry now exists, false when it was removed
		  - error: Procedure or connectivity failures
	*/
	Toggle(context context.Context, donorID, projectID string) (bool, error)

	/*
		DeleteEntry invokes the server-side delete-by-id procedure.

		Parameters:
		  - context: context.Context
		  - entryID: string

		Returns:
		  - bool: True when a row was deleted, false when already gone
		  - error: Procedure or connectivity failures
	*/
	DeleteEntry(context context.Context, entryID string) (bool, error)

	/*
		DeleteByID removes an entry row directly by primary key.

		Parameters:
		  - context: context.Context
		  - entryID: string

		Returns:
		  - error: apperr.NotFound when absent, or persistence failures
	*/
	DeleteByID(context context.Context, entryID string) error

	/*
		DeleteByPair removes an entry row by its (donor, project) pair.

		Parameters:
		  - context: context.Context
		  - donorID: string
		  - projectID: string

		Returns:
		  - error: apperr.NotFound when absent, or persistence failures
	*/
	DeleteByPair(context context.Context, donorID, projectID string) error

	/*
		ListByDonor returns every entry for a donor, newest first.

		Parameters:
		  - context: context.Context
		  - donorID: string

		Returns:
		  - []*Entry: All entries, possibly empty
		  - error: Database retrieval failures
	*/
	ListByDonor(context context.Context, donorID string) ([]*Entry, error)
}

// # Hint Cache Access

// Cache defines the volatile hint-cache contract for wishlist membership.
type Cache interface {

	/*
		GetProjectIDs returns the cached saved-project ids for an identity.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - []string: Cached project ids
		  - bool: False on miss or when the hint is stale
		  - error: Cache connectivity failures only
	*/
	GetProjectIDs(context context.Context, authID string) ([]string, bool, error)

	/*
		SetProjectIDs stores a freshly derived membership snapshot.

		Parameters:
		  - context: context.Context
		  - authID: string
		  - projectIDs: []string

		Returns:
		  - error: Cache write failures
	*/
	SetProjectIDs(context context.Context, authID string, projectIDs []string) error

	/*
		Invalidate drops the snapshot and records the mutation time.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - error: Cache delete failures
	*/
	Invalidate(context context.Context, authID string) error

	/*
		LastMutation returns when this identity last mutated its wishlist,
		or the zero time when unknown.

		Parameters:
		  - context: context.Context
		  - authID: string

		Returns:
		  - time.Time: Last mutation timestamp
		  - error: Cache connectivity failures only
	*/
	LastMutation(context context.Context, authID string) (time.Time, error)
}

// ProjectLoader resolves project details for wishlist listings.
type ProjectLoader interface {
	Get(context context.Context, id string) (*project.Project, error)
}
