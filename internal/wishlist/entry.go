// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package wishlist implements donor wishlists over funding projects.

Wishlist mutations are idempotent — adding an already-saved project or
removing an already-absent one succeeds silently — and every mutation runs
through a ladder of storage paths so a single unavailable procedure never
blocks the user. A Redis hint cache accelerates membership reads; counts and
listings are always re-derived from the persistent store.

# Authorization Recovery

The persistent store enforces row ownership. When it rejects a write with a
privilege error, the usual cause is a stale donor id from a hint cache, not a
hostile caller: the donor profile was re-provisioned and the cached id points
at the old row. Mutations respond by purging the caches, re-resolving the
donor, and retrying exactly once before giving up.
*/
package wishlist

import (
	"errors"
	"time"

	"github.com/classraise/classraise/internal/core/project"
)

// ErrRetryRequired signals that a mutation failed due to a stale donor
// linkage and should be retried after cache purge and re-resolution. It never
// reaches API clients.
var ErrRetryRequired = errors.New("wishlist: stale donor linkage, retry after re-resolution")

// # Domain Entities

// Entry links a donor profile to a saved project.
type Entry struct {
	ID        string    `json:"id"`
	DonorID   string    `json:"donor_id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedProject is a wishlist entry joined with its project for display.
//
// A project that fails to load (deleted, or its store shard unavailable) is
// still represented, with Missing set, so the wishlist count stays truthful
// and the UI can render a placeholder card.
type SavedProject struct {
	EntryID   string           `json:"entry_id"`
	ProjectID string           `json:"project_id"`
	SavedAt   time.Time        `json:"saved_at"`
	Project   *project.Project `json:"project,omitempty"`
	Missing   bool             `json:"missing"`
}

// # Field Identifiers

const (
	FieldProjectID  = "project_id"
	FieldProjectIDs = "project_ids"
)
