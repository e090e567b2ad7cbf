// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package reconcile_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/reconcile"
	"github.com/classraise/classraise/internal/wishlist"
)

const (
	testAuthID  = "auth-1"
	testDonorID = "donor-1"
)

// fakeDonorResolver resolves every identity to one profile and records purges.
type fakeDonorResolver struct {
	profile    *donor.Profile
	resolveErr error

	resolves    int
	invalidated int
}

func (resolver *fakeDonorResolver) Resolve(_ context.Context, _ donor.ResolveInput) (*donor.Profile, error) {
	resolver.resolves++
	if resolver.resolveErr != nil {
		return nil, resolver.resolveErr
	}
	return resolver.profile, nil
}

func (resolver *fakeDonorResolver) Invalidate(_ context.Context, _ string) error {
	resolver.invalidated++
	return nil
}

// fakeWishlistGateway serves membership and counts with injectable failures.
type fakeWishlistGateway struct {
	saved map[string]bool
	count int

	// statusErrs are consumed one per Status call; nil entries succeed.
	statusErrs []error

	statusCalls int
	invalidated int
}

func (gateway *fakeWishlistGateway) Status(_ context.Context, _ string, projectIDs []string) (map[string]bool, error) {
	call := gateway.statusCalls
	gateway.statusCalls++
	if call < len(gateway.statusErrs) && gateway.statusErrs[call] != nil {
		return nil, gateway.statusErrs[call]
	}

	status := make(map[string]bool, len(projectIDs))
	for _, projectID := range projectIDs {
		status[projectID] = gateway.saved[projectID]
	}
	return status, nil
}

func (gateway *fakeWishlistGateway) Count(_ context.Context, _ string) (int, error) {
	return gateway.count, nil
}

func (gateway *fakeWishlistGateway) InvalidateCache(_ context.Context, _ string) error {
	gateway.invalidated++
	return nil
}

func newTestOrchestrator() (*reconcile.Orchestrator, *fakeDonorResolver, *fakeWishlistGateway) {
	donors := &fakeDonorResolver{profile: &donor.Profile{ID: testDonorID, UserID: "user-1"}}
	wishlists := &fakeWishlistGateway{saved: map[string]bool{"p1": true}, count: 3}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return reconcile.NewOrchestrator(donors, wishlists, logger), donors, wishlists
}

func snapshotInput(projectIDs ...string) reconcile.SnapshotInput {
	return reconcile.SnapshotInput{
		ResolveInput: donor.ResolveInput{AuthID: testAuthID},
		ProjectIDs:   projectIDs,
	}
}

/*
TestOrchestrator_Snapshot verifies the assembled view: donor id, per-project
membership, and wishlist size in one pass.
*/
func TestOrchestrator_Snapshot(t *testing.T) {
	orchestrator, _, _ := newTestOrchestrator()

	snapshot, err := orchestrator.Snapshot(context.Background(), snapshotInput("p1", "p2"))

	require.NoError(t, err)
	assert.Equal(t, testDonorID, snapshot.DonorID)
	assert.True(t, snapshot.Saved["p1"])
	assert.False(t, snapshot.Saved["p2"])
	assert.Equal(t, 3, snapshot.Count)
	assert.False(t, snapshot.Degraded)
	assert.Empty(t, snapshot.Notice)
}

/*
TestOrchestrator_Snapshot_StaleLinkageRetriesOnce verifies that a privilege
rejection purges both hint caches and the assembly runs exactly once more.
*/
func TestOrchestrator_Snapshot_StaleLinkageRetriesOnce(t *testing.T) {
	orchestrator, donors, wishlists := newTestOrchestrator()
	wishlists.statusErrs = []error{wishlist.ErrRetryRequired}

	snapshot, err := orchestrator.Snapshot(context.Background(), snapshotInput("p1"))

	require.NoError(t, err)
	assert.False(t, snapshot.Degraded)
	assert.True(t, snapshot.Saved["p1"])
	assert.Equal(t, 2, wishlists.statusCalls)
	assert.Equal(t, 1, donors.invalidated)
	assert.Equal(t, 1, wishlists.invalidated)
}

/*
TestOrchestrator_Snapshot_DegradesInsteadOfFailing verifies that persistent
failures produce a degraded snapshot with a notice and a nil error.
*/
func TestOrchestrator_Snapshot_DegradesInsteadOfFailing(t *testing.T) {
	orchestrator, donors, _ := newTestOrchestrator()
	donors.resolveErr = apperr.DonorProfileUnavailable(errors.New("db down"))

	snapshot, err := orchestrator.Snapshot(context.Background(), snapshotInput("p1", "p2"))

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Degraded)
	assert.NotEmpty(t, snapshot.Notice)
	assert.Equal(t, 0, snapshot.Count)
	assert.False(t, snapshot.Saved["p1"])
	assert.False(t, snapshot.Saved["p2"])
	assert.Len(t, snapshot.Saved, 2)
}

/*
TestOrchestrator_Snapshot_UnauthorizedSurfaces verifies that authentication
failures are never masked by degradation.
*/
func TestOrchestrator_Snapshot_UnauthorizedSurfaces(t *testing.T) {
	orchestrator, donors, _ := newTestOrchestrator()
	donors.resolveErr = apperr.Unauthorized("Missing identity")

	snapshot, err := orchestrator.Snapshot(context.Background(), snapshotInput())

	assert.Nil(t, snapshot)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestOrchestrator_Refresh_PurgesBeforeAssembly verifies the explicit recovery
path drops both hint caches unconditionally.
*/
func TestOrchestrator_Refresh_PurgesBeforeAssembly(t *testing.T) {
	orchestrator, donors, wishlists := newTestOrchestrator()

	snapshot, err := orchestrator.Refresh(context.Background(), snapshotInput())

	require.NoError(t, err)
	assert.Equal(t, testDonorID, snapshot.DonorID)
	assert.Equal(t, 1, donors.invalidated)
	assert.Equal(t, 1, wishlists.invalidated)
}
