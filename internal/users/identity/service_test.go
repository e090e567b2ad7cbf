// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package identity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/users/identity"
)

// fakeUserRepository is an in-memory Repository with injectable failures.
type fakeUserRepository struct {
	byAuthID map[string][]*identity.User

	findErr   error
	createErr error
	updateErr error

	// missOnce forces the next FindByAuthID to report no rows, simulating a
	// lookup that raced a concurrent create.
	missOnce bool

	created []*identity.User
	updated []*identity.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byAuthID: map[string][]*identity.User{}}
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id string) (*identity.User, error) {
	for _, users := range repo.byAuthID {
		for _, user := range users {
			if user.ID == id {
				return user, nil
			}
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByAuthID(_ context.Context, authID string) ([]*identity.User, error) {
	if repo.findErr != nil {
		return nil, repo.findErr
	}
	if repo.missOnce {
		repo.missOnce = false
		return nil, apperr.NotFound("User not found for this identity")
	}
	users := repo.byAuthID[authID]
	if len(users) == 0 {
		return nil, apperr.NotFound("User not found for this identity")
	}
	return users, nil
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, users := range repo.byAuthID {
		for _, user := range users {
			if user.Email == email {
				return user, nil
			}
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) Create(_ context.Context, user *identity.User) error {
	if repo.createErr != nil {
		return repo.createErr
	}
	repo.created = append(repo.created, user)
	repo.byAuthID[user.AuthID] = append(repo.byAuthID[user.AuthID], user)
	return nil
}

func (repo *fakeUserRepository) Update(_ context.Context, user *identity.User) error {
	if repo.updateErr != nil {
		return repo.updateErr
	}
	repo.updated = append(repo.updated, user)
	return nil
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, _ string, _ string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestService_Resolve_CreatesMissingRow verifies that a never-seen identity gets
a user row minted from the token hints, defaulting to the donor role.
*/
func TestService_Resolve_CreatesMissingRow(t *testing.T) {
	repo := newFakeUserRepository()
	service := identity.NewService(repo, testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{
		AuthID:    "auth-123",
		Email:     "pat@example.com",
		FirstName: "Pat",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "auth-123", user.AuthID)
	assert.Equal(t, sec.RoleDonor, user.Role)
	assert.Equal(t, "pat@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	require.Len(t, repo.created, 1)
}

/*
TestService_Resolve_MissingAuthID verifies that an empty identity is rejected
before any store access.
*/
func TestService_Resolve_MissingAuthID(t *testing.T) {
	service := identity.NewService(newFakeUserRepository(), testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{})

	assert.Nil(t, user)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestService_Resolve_DuplicatesPickOldest verifies that duplicate rows for one
identity resolve to the oldest row and increment the anomaly counter.
*/
func TestService_Resolve_DuplicatesPickOldest(t *testing.T) {
	repo := newFakeUserRepository()
	older := &identity.User{ID: "user-old", AuthID: "auth-dup", Role: sec.RoleDonor, CreatedAt: time.Now().Add(-48 * time.Hour)}
	newer := &identity.User{ID: "user-new", AuthID: "auth-dup", Role: sec.RoleDonor, CreatedAt: time.Now()}
	repo.byAuthID["auth-dup"] = []*identity.User{older, newer}

	service := identity.NewService(repo, testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{AuthID: "auth-dup"})

	require.NoError(t, err)
	assert.Equal(t, "user-old", user.ID)
	assert.Equal(t, int64(1), service.Stats().DuplicateIdentities)

	// A second lookup counts again.
	_, err = service.Resolve(context.Background(), identity.ResolveInput{AuthID: "auth-dup"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), service.Stats().DuplicateIdentities)
}

/*
TestService_Resolve_RoleHintWins verifies that a non-empty role claim corrects
a stale stored role, both in memory and in the store.
*/
func TestService_Resolve_RoleHintWins(t *testing.T) {
	repo := newFakeUserRepository()
	repo.byAuthID["auth-t"] = []*identity.User{
		{ID: "user-t", AuthID: "auth-t", Role: sec.RoleDonor},
	}

	service := identity.NewService(repo, testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{
		AuthID:   "auth-t",
		RoleHint: sec.RoleTeacher,
	})

	require.NoError(t, err)
	assert.Equal(t, sec.RoleTeacher, user.Role)
	require.Len(t, repo.updated, 1)
	assert.Equal(t, sec.RoleTeacher, repo.updated[0].Role)
}

/*
TestService_Resolve_RoleCorrectionPersistFailureNonFatal verifies that the
corrected role is still returned when persisting the correction fails.
*/
func TestService_Resolve_RoleCorrectionPersistFailureNonFatal(t *testing.T) {
	repo := newFakeUserRepository()
	repo.byAuthID["auth-t"] = []*identity.User{
		{ID: "user-t", AuthID: "auth-t", Role: sec.RoleDonor},
	}
	repo.updateErr = errors.New("connection reset")

	service := identity.NewService(repo, testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{
		AuthID:   "auth-t",
		RoleHint: sec.RoleTeacher,
	})

	require.NoError(t, err)
	assert.Equal(t, sec.RoleTeacher, user.Role)
}

/*
TestService_Resolve_StoreDownFailsClosed verifies that an unreachable store
yields IDENTITY_LOOKUP_FAILED instead of a fabricated row.
*/
func TestService_Resolve_StoreDownFailsClosed(t *testing.T) {
	repo := newFakeUserRepository()
	repo.findErr = errors.New("dial tcp: connection refused")

	service := identity.NewService(repo, testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{AuthID: "auth-x"})

	assert.Nil(t, user)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "IDENTITY_LOOKUP_FAILED"))
	assert.Empty(t, repo.created)
}

/*
TestService_Resolve_CreateRaceAdoptsWinner verifies that a unique violation on
creation re-reads and adopts the concurrently created row.
*/
func TestService_Resolve_CreateRaceAdoptsWinner(t *testing.T) {
	repo := newFakeUserRepository()
	winner := &identity.User{ID: "user-winner", AuthID: "auth-race", Role: sec.RoleDonor}

	// The first lookup misses, the create collides with the concurrent
	// winner, and the re-read finds the winner's row.
	repo.missOnce = true
	repo.createErr = apperr.Conflict("Resource already exists")
	repo.byAuthID["auth-race"] = []*identity.User{winner}

	service := identity.NewService(repo, testLogger())

	user, err := service.Resolve(context.Background(), identity.ResolveInput{AuthID: "auth-race"})

	require.NoError(t, err)
	assert.Equal(t, "user-winner", user.ID)
}
