// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/users/identity"
)

// fakeProfileRepository is an in-memory donor.Repository with injectable
// failures per operation.
type fakeProfileRepository struct {
	byID     map[string]*donor.Profile
	byUserID map[string]*donor.Profile

	findByIDErr     error
	findByUserErr   error
	provisionErr    error
	createErr       error
	provisionCalled int
	createCalled    int

	// findByUserMisses forces that many FindByUserID calls to report no row,
	// simulating a profile created concurrently mid-resolution.
	findByUserMisses int
}

func newFakeProfileRepository() *fakeProfileRepository {
	return &fakeProfileRepository{
		byID:     map[string]*donor.Profile{},
		byUserID: map[string]*donor.Profile{},
	}
}

func (repo *fakeProfileRepository) add(profile *donor.Profile) {
	repo.byID[profile.ID] = profile
	repo.byUserID[profile.UserID] = profile
}

func (repo *fakeProfileRepository) FindByID(_ context.Context, id string) (*donor.Profile, error) {
	if repo.findByIDErr != nil {
		return nil, repo.findByIDErr
	}
	profile, ok := repo.byID[id]
	if !ok {
		return nil, apperr.NotFound("Donor profile")
	}
	return profile, nil
}

func (repo *fakeProfileRepository) FindByUserID(_ context.Context, userID string) (*donor.Profile, error) {
	if repo.findByUserErr != nil {
		return nil, repo.findByUserErr
	}
	if repo.findByUserMisses > 0 {
		repo.findByUserMisses--
		return nil, apperr.NotFound("Donor profile")
	}
	profile, ok := repo.byUserID[userID]
	if !ok {
		return nil, apperr.NotFound("Donor profile")
	}
	return profile, nil
}

func (repo *fakeProfileRepository) Provision(_ context.Context, userID string, isAnonymous bool) (*donor.Profile, error) {
	repo.provisionCalled++
	if repo.provisionErr != nil {
		return nil, repo.provisionErr
	}
	if existing, ok := repo.byUserID[userID]; ok {
		return existing, nil
	}
	profile := &donor.Profile{ID: "prov-" + userID, UserID: userID, IsAnonymous: isAnonymous}
	repo.add(profile)
	return profile, nil
}

func (repo *fakeProfileRepository) Create(_ context.Context, profile *donor.Profile) error {
	repo.createCalled++
	if repo.createErr != nil {
		return repo.createErr
	}
	if _, ok := repo.byUserID[profile.UserID]; ok {
		return apperr.Conflict("Resource already exists")
	}
	repo.add(profile)
	return nil
}

func (repo *fakeProfileRepository) UpdateAnonymity(_ context.Context, id string, isAnonymous bool) error {
	profile, ok := repo.byID[id]
	if !ok {
		return apperr.NotFound("Donor profile")
	}
	profile.IsAnonymous = isAnonymous
	return nil
}

// fakeProfileCache is an in-memory donor.Cache.
type fakeProfileCache struct {
	entries map[string]*donor.CachedProfile
	setup   map[string]bool

	getErr  error
	removed []string
}

func newFakeProfileCache() *fakeProfileCache {
	return &fakeProfileCache{
		entries: map[string]*donor.CachedProfile{},
		setup:   map[string]bool{},
	}
}

func (cache *fakeProfileCache) Get(_ context.Context, authID string) (*donor.CachedProfile, error) {
	if cache.getErr != nil {
		return nil, cache.getErr
	}
	return cache.entries[authID], nil
}

func (cache *fakeProfileCache) Set(_ context.Context, authID string, profile *donor.Profile) error {
	cache.entries[authID] = &donor.CachedProfile{Profile: *profile, FetchedAt: time.Now()}
	return nil
}

func (cache *fakeProfileCache) Remove(_ context.Context, authID string) error {
	cache.removed = append(cache.removed, authID)
	delete(cache.entries, authID)
	delete(cache.setup, authID)
	return nil
}

func (cache *fakeProfileCache) MarkSetupComplete(_ context.Context, authID string) error {
	cache.setup[authID] = true
	return nil
}

func (cache *fakeProfileCache) IsSetupComplete(_ context.Context, authID string) (bool, error) {
	return cache.setup[authID], nil
}

// fakeIdentityResolver maps one auth id to one user.
type fakeIdentityResolver struct {
	user *identity.User
	err  error

	calls int
}

func (resolver *fakeIdentityResolver) Resolve(_ context.Context, input identity.ResolveInput) (*identity.User, error) {
	resolver.calls++
	if resolver.err != nil {
		return nil, resolver.err
	}
	return resolver.user, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	testAuthID = "auth-1"
	testUserID = "user-1"
)

func newTestResolver() (*donor.Resolver, *fakeProfileRepository, *fakeProfileCache, *fakeIdentityResolver) {
	repo := newFakeProfileRepository()
	cache := newFakeProfileCache()
	identities := &fakeIdentityResolver{user: &identity.User{ID: testUserID, AuthID: testAuthID}}
	return donor.NewResolver(repo, cache, identities, testLogger()), repo, cache, identities
}

/*
TestResolver_Resolve_VerifiedCacheHit verifies that a fresh cached profile is
trusted only after the underlying row is re-read and ownership confirmed.
*/
func TestResolver_Resolve_VerifiedCacheHit(t *testing.T) {
	resolver, repo, cache, _ := newTestResolver()

	profile := &donor.Profile{ID: "donor-1", UserID: testUserID}
	repo.add(profile)
	cache.entries[testAuthID] = &donor.CachedProfile{Profile: *profile, FetchedAt: time.Now()}

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	require.NoError(t, err)
	assert.Equal(t, "donor-1", resolved.ID)
	assert.Zero(t, repo.provisionCalled)
	assert.Zero(t, repo.createCalled)
}

/*
TestResolver_Resolve_StaleCacheFallsThrough verifies that a cached profile
past the freshness window is ignored in favour of the persistent store.
*/
func TestResolver_Resolve_StaleCacheFallsThrough(t *testing.T) {
	resolver, repo, cache, _ := newTestResolver()

	profile := &donor.Profile{ID: "donor-1", UserID: testUserID}
	repo.add(profile)
	cache.entries[testAuthID] = &donor.CachedProfile{
		Profile:   donor.Profile{ID: "donor-ancient", UserID: testUserID},
		FetchedAt: time.Now().Add(-time.Hour),
	}

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	require.NoError(t, err)
	assert.Equal(t, "donor-1", resolved.ID)
}

/*
TestResolver_Resolve_OwnerMismatchEvicts verifies that a cache entry pointing
at somebody else's profile is purged and resolution rebuilds from the store.
*/
func TestResolver_Resolve_OwnerMismatchEvicts(t *testing.T) {
	resolver, repo, cache, _ := newTestResolver()

	intruder := &donor.Profile{ID: "donor-other", UserID: "user-other"}
	repo.add(intruder)
	mine := &donor.Profile{ID: "donor-mine", UserID: testUserID}
	repo.add(mine)
	cache.entries[testAuthID] = &donor.CachedProfile{Profile: *intruder, FetchedAt: time.Now()}

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	require.NoError(t, err)
	assert.Equal(t, "donor-mine", resolved.ID)
	assert.Contains(t, cache.removed, testAuthID)
}

/*
TestResolver_Resolve_ProvisionsWhenAbsent verifies that a first-time donor is
provisioned through the server-side procedure and the result cached.
*/
func TestResolver_Resolve_ProvisionsWhenAbsent(t *testing.T) {
	resolver, repo, cache, _ := newTestResolver()

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	require.NoError(t, err)
	assert.Equal(t, testUserID, resolved.UserID)
	assert.Equal(t, 1, repo.provisionCalled)
	assert.NotNil(t, cache.entries[testAuthID])
	assert.True(t, cache.setup[testAuthID])
}

/*
TestResolver_Resolve_CreateDirectFallback verifies that a failing provision
procedure falls through to the direct insert.
*/
func TestResolver_Resolve_CreateDirectFallback(t *testing.T) {
	resolver, repo, _, _ := newTestResolver()
	repo.provisionErr = errors.New("function donors.get_or_create_profile does not exist")

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	require.NoError(t, err)
	assert.Equal(t, testUserID, resolved.UserID)
	assert.Equal(t, 1, repo.createCalled)
}

/*
TestResolver_Resolve_UniqueViolationAdoptsWinner verifies that losing the
direct-insert race adopts the concurrently created row instead of failing.
*/
func TestResolver_Resolve_UniqueViolationAdoptsWinner(t *testing.T) {
	resolver, repo, _, _ := newTestResolver()
	repo.provisionErr = errors.New("procedure unavailable")
	repo.createErr = apperr.Conflict("Resource already exists")

	// The winner's row exists but stays invisible for the direct lookup and
	// the immediately-before check; only the conflict-path re-read sees it.
	winner := &donor.Profile{ID: "donor-winner", UserID: testUserID}
	repo.add(winner)
	repo.findByUserMisses = 2

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	require.NoError(t, err)
	assert.Equal(t, "donor-winner", resolved.ID)
}

/*
TestResolver_Resolve_ExhaustionFails verifies that when every layer fails the
resolver reports DONOR_PROFILE_UNAVAILABLE.
*/
func TestResolver_Resolve_ExhaustionFails(t *testing.T) {
	resolver, repo, cache, _ := newTestResolver()
	cache.getErr = errors.New("redis: connection refused")
	repo.findByUserErr = errors.New("db down")
	repo.provisionErr = errors.New("db down")
	repo.createErr = errors.New("db down")

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	assert.Nil(t, resolved)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "DONOR_PROFILE_UNAVAILABLE"))
}

/*
TestResolver_Resolve_IdentityFailureIsTerminal verifies that an identity
lookup failure short-circuits the ladder instead of being retried per layer.
*/
func TestResolver_Resolve_IdentityFailureIsTerminal(t *testing.T) {
	resolver, repo, _, identities := newTestResolver()
	identities.err = apperr.IdentityLookupFailed(errors.New("db down"))

	resolved, err := resolver.Resolve(context.Background(), donor.ResolveInput{AuthID: testAuthID})

	assert.Nil(t, resolved)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "IDENTITY_LOOKUP_FAILED"))
	assert.Zero(t, repo.provisionCalled)
	assert.Zero(t, repo.createCalled)
}

/*
TestResolver_Peek_NeverProvisions verifies that the side-effect-free read
reports nil for an identity with no profile and creates nothing.
*/
func TestResolver_Peek_NeverProvisions(t *testing.T) {
	resolver, repo, _, _ := newTestResolver()

	profile, err := resolver.Peek(context.Background(), testAuthID)

	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.Zero(t, repo.provisionCalled)
	assert.Zero(t, repo.createCalled)
}

/*
TestResolver_Owns verifies ownership checks for present, foreign, and missing
profiles.
*/
func TestResolver_Owns(t *testing.T) {
	resolver, repo, _, _ := newTestResolver()
	repo.add(&donor.Profile{ID: "donor-mine", UserID: testUserID})
	repo.add(&donor.Profile{ID: "donor-other", UserID: "user-other"})

	owns, err := resolver.Owns(context.Background(), "donor-mine", testAuthID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = resolver.Owns(context.Background(), "donor-other", testAuthID)
	require.NoError(t, err)
	assert.False(t, owns)

	owns, err = resolver.Owns(context.Background(), "donor-missing", testAuthID)
	require.NoError(t, err)
	assert.False(t, owns)
}

/*
TestResolver_SetAnonymity verifies the preference flip round-trips through
resolution and persists.
*/
func TestResolver_SetAnonymity(t *testing.T) {
	resolver, repo, _, _ := newTestResolver()
	repo.add(&donor.Profile{ID: "donor-1", UserID: testUserID})

	updated, err := resolver.SetAnonymity(context.Background(), donor.ResolveInput{AuthID: testAuthID}, true)

	require.NoError(t, err)
	assert.True(t, updated.IsAnonymous)
	assert.True(t, repo.byID["donor-1"].IsAnonymous)
}
