// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package donor implements donor profile resolution and management.

A donor profile is the entity that owns wishlists and donations. Profiles are
provisioned lazily: the first donor-only action a user takes creates one.
Resolution is layered — a Redis hint cache is consulted first, then the
persistent store, then a server-side provisioning procedure, and finally a
direct insert — so a donor action succeeds even when individual layers are
cold, stale, or unavailable.

# Trust Model

The cache is strictly a hint. Every cached profile is re-verified against the
persistent store before any write path trusts it, so a poisoned or stale
cache entry can slow a request down but never corrupt data.
*/
package donor

import (
	"time"

	"github.com/classraise/classraise/internal/platform/constants"
)

// # Domain Entities

// Profile represents a donor profile owned by a user account.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	IsAnonymous bool      `json:"is_anonymous"` // Hide the donor's name on public donation lists.
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CachedProfile is the envelope stored in the hint cache. The fetch timestamp
// travels with the profile so staleness is judged by when WE loaded it, not
// by the key's remaining TTL.
type CachedProfile struct {
	Profile   Profile   `json:"profile"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fresh reports whether the cached value is recent enough to skip the
// re-derivation that stale entries trigger.
func (cached *CachedProfile) Fresh() bool {
	return time.Since(cached.FetchedAt) < constants.CacheFreshWindow
}

// # Field Identifiers

const (
	FieldIsAnonymous = "is_anonymous"
	FieldProjectID   = "project_id"
)
