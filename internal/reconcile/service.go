// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package reconcile assembles the per-identity donor view a page render needs:
the resolved donor profile plus wishlist membership for the projects on
screen, in one round trip.

# Degradation Contract

A page render must never fail because donor state could not be loaded. When
resolution or the membership read fails even after the single recovery retry,
the orchestrator returns a degraded snapshot (empty membership, a
human-readable notice) instead of an error. Only authentication failures
surface to the caller.
*/
package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/dberr"
	"github.com/classraise/classraise/internal/wishlist"
)

// # Contracts & Types

// DonorResolver is the slice of the donor resolver the orchestrator needs.
type DonorResolver interface {
	Resolve(context context.Context, input donor.ResolveInput) (*donor.Profile, error)
	Invalidate(context context.Context, authID string) error
}

// WishlistGateway is the slice of the wishlist service the orchestrator needs.
type WishlistGateway interface {
	Status(context context.Context, donorID string, projectIDs []string) (map[string]bool, error)
	Count(context context.Context, authID string) (int, error)
	InvalidateCache(context context.Context, authID string) error
}

// SnapshotInput names the identity to reconcile and the projects whose
// membership the caller is about to render.
type SnapshotInput struct {
	donor.ResolveInput
	ProjectIDs []string
}

// Snapshot is the reconciled donor view for one identity.
type Snapshot struct {
	DonorID     string          `json:"donor_id,omitempty"`
	IsAnonymous bool            `json:"is_anonymous"`
	Saved       map[string]bool `json:"saved"`
	Count       int             `json:"count"`
	Degraded    bool            `json:"degraded"`
	Notice      string          `json:"notice,omitempty"`
}

// noticeUnavailable is the user-facing text attached to degraded snapshots.
const noticeUnavailable = "Could not load wishlist status"

// Orchestrator builds reconciled snapshots over the donor resolver and the
// wishlist service.
type Orchestrator struct {
	donors    DonorResolver
	wishlists WishlistGateway
	logger    *slog.Logger
}

// NewOrchestrator constructs the reconciliation orchestrator.
func NewOrchestrator(donors DonorResolver, wishlists WishlistGateway, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		donors:    donors,
		wishlists: wishlists,
		logger:    logger,
	}
}

// # Operations

/*
Snapshot reconciles the caller's donor state for a page render.

Description: Resolves the donor profile, reads membership for the requested
project ids, and reads the wishlist size. A privilege rejection on the first
pass is treated as stale cached linkage: both hint caches are purged and the
whole assembly runs once more. Any failure after that produces a degraded
snapshot and a nil error; only authentication failures are returned.

Parameters:
  - context: context.Context
  - input: SnapshotInput

Returns:
  - *Snapshot: Reconciled or degraded snapshot, never nil on nil error
  - error: apperr.Unauthorized only
*/
func (orchestrator *Orchestrator) Snapshot(context context.Context, input SnapshotInput) (*Snapshot, error) {
	snapshot, err := orchestrator.assemble(context, input)
	if err != nil && isStaleLinkage(err) {
		orchestrator.purge(context, input.AuthID)
		snapshot, err = orchestrator.assemble(context, input)
	}
	if err != nil {
		if apperr.IsCode(err, "UNAUTHORIZED") {
			return nil, err
		}

		orchestrator.logger.Warn("reconcile_degraded",
			slog.String("auth_id", input.AuthID),
			slog.Any("error", err))

		return degradedSnapshot(input.ProjectIDs), nil
	}

	return snapshot, nil
}

/*
Refresh discards all cached donor state and rebuilds the snapshot.

Description: The explicit recovery escape hatch — the UI calls it when a user
reports stale wishlist state. Both hint caches are purged unconditionally
before assembly.

Parameters:
  - context: context.Context
  - input: SnapshotInput

Returns:
  - *Snapshot: Freshly rebuilt or degraded snapshot
  - error: apperr.Unauthorized only
*/
func (orchestrator *Orchestrator) Refresh(context context.Context, input SnapshotInput) (*Snapshot, error) {
	orchestrator.purge(context, input.AuthID)
	return orchestrator.Snapshot(context, input)
}

// assemble runs one full reconciliation pass.
func (orchestrator *Orchestrator) assemble(context context.Context, input SnapshotInput) (*Snapshot, error) {
	profile, err := orchestrator.donors.Resolve(context, input.ResolveInput)
	if err != nil {
		return nil, err
	}

	saved := map[string]bool{}
	if len(input.ProjectIDs) > 0 {
		saved, err = orchestrator.wishlists.Status(context, profile.ID, input.ProjectIDs)
		if err != nil {
			return nil, err
		}
	}

	count, err := orchestrator.wishlists.Count(context, input.AuthID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		DonorID:     profile.ID,
		IsAnonymous: profile.IsAnonymous,
		Saved:       saved,
		Count:       count,
	}, nil
}

// purge drops both hint caches for the identity; failures are deliberately
// ignored since the persistent store remains authoritative.
func (orchestrator *Orchestrator) purge(context context.Context, authID string) {
	_ = orchestrator.donors.Invalidate(context, authID)
	_ = orchestrator.wishlists.InvalidateCache(context, authID)
}

// isStaleLinkage reports whether the failure pattern indicates cached donor
// linkage that no longer matches the database.
func isStaleLinkage(err error) bool {
	return errors.Is(err, wishlist.ErrRetryRequired) || dberr.IsPermissionDenied(err)
}

// degradedSnapshot builds the fallback view: nothing saved, nothing counted,
// and a notice explaining why.
func degradedSnapshot(projectIDs []string) *Snapshot {
	saved := make(map[string]bool, len(projectIDs))
	for _, projectID := range projectIDs {
		saved[projectID] = false
	}

	return &Snapshot{
		Saved:    saved,
		Count:    0,
		Degraded: true,
		Notice:   noticeUnavailable,
	}
}
