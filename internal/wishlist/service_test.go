// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package wishlist_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classraise/classraise/internal/core/project"
	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/wishlist"
)

const (
	testAuthID    = "auth-1"
	testDonorID   = "donor-1"
	testProjectID = "11111111-1111-4111-8111-111111111111"
)

// fakeEntryRepository is an in-memory wishlist.Repository. Privilege failures
// are injected per call count to simulate stale row-level-security linkage.
type fakeEntryRepository struct {
	entries map[string]*wishlist.Entry // key: donorID + "/" + projectID

	permDeniedCalls int // fail this many store calls with FORBIDDEN first
	toggleErr       error
	deleteProcErr   error

	toggleCalls int
	insertCalls int
}

func newFakeEntryRepository() *fakeEntryRepository {
	return &fakeEntryRepository{entries: map[string]*wishlist.Entry{}}
}

func pairKey(donorID, projectID string) string {
	return donorID + "/" + projectID
}

func (repo *fakeEntryRepository) denied() bool {
	if repo.permDeniedCalls > 0 {
		repo.permDeniedCalls--
		return true
	}
	return false
}

func (repo *fakeEntryRepository) Find(_ context.Context, donorID, projectID string) (*wishlist.Entry, error) {
	if repo.denied() {
		return nil, apperr.Forbidden("Operation not permitted")
	}
	entry, ok := repo.entries[pairKey(donorID, projectID)]
	if !ok {
		return nil, apperr.NotFound("Wishlist entry")
	}
	return entry, nil
}

func (repo *fakeEntryRepository) Insert(_ context.Context, entry *wishlist.Entry) error {
	repo.insertCalls++
	if repo.denied() {
		return apperr.Forbidden("Operation not permitted")
	}
	key := pairKey(entry.DonorID, entry.ProjectID)
	if _, ok := repo.entries[key]; ok {
		return apperr.Conflict("Resource already exists")
	}
	repo.entries[key] = entry
	return nil
}

func (repo *fakeEntryRepository) Toggle(_ context.Context, donorID, projectID string) (bool, error) {
	repo.toggleCalls++
	if repo.denied() {
		return false, apperr.Forbidden("Operation not permitted")
	}
	if repo.toggleErr != nil {
		return false, repo.toggleErr
	}
	key := pairKey(donorID, projectID)
	if _, ok := repo.entries[key]; ok {
		delete(repo.entries, key)
		return false, nil
	}
	repo.entries[key] = &wishlist.Entry{ID: "e-" + key, DonorID: donorID, ProjectID: projectID, CreatedAt: time.Now()}
	return true, nil
}

func (repo *fakeEntryRepository) DeleteEntry(_ context.Context, entryID string) (bool, error) {
	if repo.denied() {
		return false, apperr.Forbidden("Operation not permitted")
	}
	if repo.deleteProcErr != nil {
		return false, repo.deleteProcErr
	}
	for key, entry := range repo.entries {
		if entry.ID == entryID {
			delete(repo.entries, key)
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakeEntryRepository) DeleteByID(_ context.Context, entryID string) error {
	if repo.denied() {
		return apperr.Forbidden("Operation not permitted")
	}
	for key, entry := range repo.entries {
		if entry.ID == entryID {
			delete(repo.entries, key)
			return nil
		}
	}
	return apperr.NotFound("Wishlist entry")
}

func (repo *fakeEntryRepository) DeleteByPair(_ context.Context, donorID, projectID string) error {
	if repo.denied() {
		return apperr.Forbidden("Operation not permitted")
	}
	key := pairKey(donorID, projectID)
	if _, ok := repo.entries[key]; !ok {
		return apperr.NotFound("Wishlist entry")
	}
	delete(repo.entries, key)
	return nil
}

func (repo *fakeEntryRepository) ListByDonor(_ context.Context, donorID string) ([]*wishlist.Entry, error) {
	result := make([]*wishlist.Entry, 0)
	for _, entry := range repo.entries {
		if entry.DonorID == donorID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// fakeHintCache is an in-memory wishlist.Cache.
type fakeHintCache struct {
	projectIDs  []string
	fresh       bool
	invalidated int
}

func (cache *fakeHintCache) GetProjectIDs(_ context.Context, _ string) ([]string, bool, error) {
	return cache.projectIDs, cache.fresh, nil
}

func (cache *fakeHintCache) SetProjectIDs(_ context.Context, _ string, projectIDs []string) error {
	cache.projectIDs = projectIDs
	cache.fresh = true
	return nil
}

func (cache *fakeHintCache) Invalidate(_ context.Context, _ string) error {
	cache.projectIDs = nil
	cache.fresh = false
	cache.invalidated++
	return nil
}

func (cache *fakeHintCache) LastMutation(_ context.Context, _ string) (time.Time, error) {
	return time.Time{}, nil
}

// fakeDonorGateway resolves every identity to the same donor profile and
// records recovery purges.
type fakeDonorGateway struct {
	profile     *donor.Profile
	resolveErr  error
	ownsResult  bool
	invalidated int
	resolves    int
}

func (gateway *fakeDonorGateway) Resolve(_ context.Context, _ donor.ResolveInput) (*donor.Profile, error) {
	gateway.resolves++
	if gateway.resolveErr != nil {
		return nil, gateway.resolveErr
	}
	return gateway.profile, nil
}

func (gateway *fakeDonorGateway) Peek(_ context.Context, _ string) (*donor.Profile, error) {
	return gateway.profile, nil
}

func (gateway *fakeDonorGateway) Owns(_ context.Context, donorID, _ string) (bool, error) {
	return gateway.ownsResult && donorID == gateway.profile.ID, nil
}

func (gateway *fakeDonorGateway) Invalidate(_ context.Context, _ string) error {
	gateway.invalidated++
	return nil
}

// fakeProjectLoader serves projects from a map; missing ids error.
type fakeProjectLoader struct {
	projects map[string]*project.Project
}

func (loader *fakeProjectLoader) Get(_ context.Context, id string) (*project.Project, error) {
	target, ok := loader.projects[id]
	if !ok {
		return nil, apperr.NotFound("Project")
	}
	return target, nil
}

func newTestService() (*wishlist.Service, *fakeEntryRepository, *fakeHintCache, *fakeDonorGateway, *fakeProjectLoader) {
	repo := newFakeEntryRepository()
	cache := &fakeHintCache{}
	donors := &fakeDonorGateway{profile: &donor.Profile{ID: testDonorID, UserID: "user-1"}, ownsResult: true}
	projects := &fakeProjectLoader{projects: map[string]*project.Project{
		testProjectID: {ID: testProjectID, Title: "Classroom Library"},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return wishlist.NewService(repo, cache, donors, projects, logger), repo, cache, donors, projects
}

func mutateInput() wishlist.MutateInput {
	return wishlist.MutateInput{
		ResolveInput: donor.ResolveInput{AuthID: testAuthID},
		ProjectID:    testProjectID,
	}
}

/*
TestService_Add_SavesProject verifies the happy path: the toggle procedure
adds the entry and the hint cache is invalidated.
*/
func TestService_Add_SavesProject(t *testing.T) {
	service, repo, cache, _, _ := newTestService()

	err := service.Add(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Len(t, repo.entries, 1)
	assert.Equal(t, 1, cache.invalidated)
}

/*
TestService_Add_Idempotent verifies that saving an already-saved project
succeeds without touching the toggle or insert paths.
*/
func TestService_Add_Idempotent(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	repo.entries[pairKey(testDonorID, testProjectID)] = &wishlist.Entry{
		ID: "e-1", DonorID: testDonorID, ProjectID: testProjectID,
	}

	err := service.Add(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Len(t, repo.entries, 1)
	assert.Zero(t, repo.toggleCalls)
	assert.Zero(t, repo.insertCalls)
}

/*
TestService_Add_ToggleUnavailableFallsBackToInsert verifies the direct-insert
fallback when the toggle procedure errors for non-privilege reasons.
*/
func TestService_Add_ToggleUnavailableFallsBackToInsert(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	repo.toggleErr = errors.New("function donors.toggle_wishlist_entry does not exist")

	err := service.Add(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Len(t, repo.entries, 1)
	assert.Equal(t, 1, repo.insertCalls)
}

/*
TestService_Add_StaleLinkageRecoversOnce verifies that a privilege rejection
purges both hint caches, re-resolves the donor, and retries exactly once.
*/
func TestService_Add_StaleLinkageRecoversOnce(t *testing.T) {
	service, repo, cache, donors, _ := newTestService()

	// The first store call (the idempotency Find) is rejected; after recovery
	// the retry proceeds normally.
	repo.permDeniedCalls = 1

	err := service.Add(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Len(t, repo.entries, 1)
	assert.Equal(t, 1, donors.invalidated)
	assert.GreaterOrEqual(t, cache.invalidated, 1)
	assert.Equal(t, 2, donors.resolves)
}

/*
TestService_Add_PersistentRejectionIsForbidden verifies that a rejection
surviving the recovery retry surfaces as FORBIDDEN.
*/
func TestService_Add_PersistentRejectionIsForbidden(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	repo.permDeniedCalls = 10

	err := service.Add(context.Background(), mutateInput())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
	assert.Empty(t, repo.entries)
}

/*
TestService_Add_StaleSuppliedDonorIDRecovered verifies that a caller-supplied
donor id failing the ownership check triggers recovery instead of rejection.
*/
func TestService_Add_StaleSuppliedDonorIDRecovered(t *testing.T) {
	service, repo, _, donors, _ := newTestService()

	input := mutateInput()
	input.DonorID = "donor-stale"

	err := service.Add(context.Background(), input)

	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	for _, entry := range repo.entries {
		assert.Equal(t, testDonorID, entry.DonorID)
	}
	assert.Equal(t, 1, donors.invalidated)
}

/*
TestService_Remove_Idempotent verifies that removing an absent entry succeeds.
*/
func TestService_Remove_Idempotent(t *testing.T) {
	service, repo, _, _, _ := newTestService()

	err := service.Remove(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Empty(t, repo.entries)
}

/*
TestService_Remove_DeletesEntry verifies the ownership-checked procedure path.
*/
func TestService_Remove_DeletesEntry(t *testing.T) {
	service, repo, cache, _, _ := newTestService()
	repo.entries[pairKey(testDonorID, testProjectID)] = &wishlist.Entry{
		ID: "e-1", DonorID: testDonorID, ProjectID: testProjectID,
	}

	err := service.Remove(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Empty(t, repo.entries)
	assert.Equal(t, 1, cache.invalidated)
}

/*
TestService_Remove_ProcUnavailableFallsBack verifies that a failing delete
procedure falls back to the direct delete ladder.
*/
func TestService_Remove_ProcUnavailableFallsBack(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	repo.entries[pairKey(testDonorID, testProjectID)] = &wishlist.Entry{
		ID: "e-1", DonorID: testDonorID, ProjectID: testProjectID,
	}
	repo.deleteProcErr = errors.New("function donors.delete_wishlist_entry does not exist")

	err := service.Remove(context.Background(), mutateInput())

	require.NoError(t, err)
	assert.Empty(t, repo.entries)
}

/*
TestService_List_MissingProjectPlaceholder verifies that entries whose project
fails to load appear as placeholders rather than being dropped.
*/
func TestService_List_MissingProjectPlaceholder(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	repo.entries[pairKey(testDonorID, testProjectID)] = &wishlist.Entry{
		ID: "e-1", DonorID: testDonorID, ProjectID: testProjectID,
	}
	repo.entries[pairKey(testDonorID, "gone-project")] = &wishlist.Entry{
		ID: "e-2", DonorID: testDonorID, ProjectID: "gone-project",
	}

	saved, err := service.List(context.Background(), testAuthID)

	require.NoError(t, err)
	require.Len(t, saved, 2)

	byProject := map[string]bool{}
	for _, item := range saved {
		byProject[item.ProjectID] = item.Missing
	}
	assert.False(t, byProject[testProjectID])
	assert.True(t, byProject["gone-project"])
}

/*
TestService_List_NoProfileIsEmpty verifies that an identity with no donor
profile lists an empty wishlist without provisioning anything.
*/
func TestService_List_NoProfileIsEmpty(t *testing.T) {
	service, _, _, donors, _ := newTestService()
	donors.profile = nil

	saved, err := service.List(context.Background(), testAuthID)

	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Zero(t, donors.resolves)
}

/*
TestService_Count verifies counts are derived from the persistent store and
the derived snapshot refreshes the hint cache.
*/
func TestService_Count(t *testing.T) {
	service, repo, cache, _, _ := newTestService()
	repo.entries[pairKey(testDonorID, testProjectID)] = &wishlist.Entry{
		ID: "e-1", DonorID: testDonorID, ProjectID: testProjectID,
	}

	count, err := service.Count(context.Background(), testAuthID)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{testProjectID}, cache.projectIDs)
}

/*
TestService_IsSaved_CacheFastPath verifies that a fresh hint snapshot answers
membership without a store round trip.
*/
func TestService_IsSaved_CacheFastPath(t *testing.T) {
	service, _, cache, _, _ := newTestService()
	cache.projectIDs = []string{testProjectID}
	cache.fresh = true

	saved, err := service.IsSaved(context.Background(), testAuthID, testProjectID)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = service.IsSaved(context.Background(), testAuthID, "other-project")
	require.NoError(t, err)
	assert.False(t, saved)
}

/*
TestService_Status verifies batch membership over one store read.
*/
func TestService_Status(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	repo.entries[pairKey(testDonorID, testProjectID)] = &wishlist.Entry{
		ID: "e-1", DonorID: testDonorID, ProjectID: testProjectID,
	}

	status, err := service.Status(context.Background(), testDonorID, []string{testProjectID, "other"})

	require.NoError(t, err)
	assert.True(t, status[testProjectID])
	assert.False(t, status["other"])
}
