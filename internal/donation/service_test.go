// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classraise/classraise/internal/core/project"
	"github.com/classraise/classraise/internal/donation"
	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
)

const (
	testAuthID    = "auth-1"
	testDonorID   = "donor-1"
	testProjectID = "11111111-1111-4111-8111-111111111111"
)

type fakeDonationRepository struct {
	donations []*donation.Donation
}

func (repo *fakeDonationRepository) Create(_ context.Context, record *donation.Donation) error {
	repo.donations = append(repo.donations, record)
	return nil
}

func (repo *fakeDonationRepository) ListByDonor(_ context.Context, donorID string) ([]*donation.Donation, error) {
	result := make([]*donation.Donation, 0)
	for _, record := range repo.donations {
		if record.DonorID == donorID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (repo *fakeDonationRepository) TotalForProject(_ context.Context, projectID string) (int64, error) {
	total := int64(0)
	for _, record := range repo.donations {
		if record.ProjectID == projectID {
			total += record.AmountCents
		}
	}
	return total, nil
}

type fakeDonorResolver struct {
	profile  *donor.Profile
	resolves int
}

func (resolver *fakeDonorResolver) Resolve(_ context.Context, _ donor.ResolveInput) (*donor.Profile, error) {
	resolver.resolves++
	return resolver.profile, nil
}

func (resolver *fakeDonorResolver) Peek(_ context.Context, _ string) (*donor.Profile, error) {
	return resolver.profile, nil
}

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

func newTestService(status string) (*donation.Service, *fakeDonationRepository, *fakeDonorResolver) {
	repo := &fakeDonationRepository{}
	donors := &fakeDonorResolver{profile: &donor.Profile{ID: testDonorID, UserID: "user-1"}}
	projects := &fakeProjectLoader{projects: map[string]*project.Project{
		testProjectID: {ID: testProjectID, Title: "Classroom Library", Status: status},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return donation.NewService(repo, donors, projects, logger), repo, donors
}

/*
TestService_Donate verifies that a donation resolves the acting donor and
records the contribution against the project.
*/
func TestService_Donate(t *testing.T) {
	service, repo, donors := newTestService(project.StatusActive)

	record, err := service.Donate(context.Background(), donation.DonateInput{
		ResolveInput: donor.ResolveInput{AuthID: testAuthID},
		ProjectID:    testProjectID,
		AmountCents:  2500,
		Message:      "For the bookshelf!",
	})

	require.NoError(t, err)
	assert.Equal(t, testDonorID, record.DonorID)
	assert.Equal(t, int64(2500), record.AmountCents)
	assert.Equal(t, 1, donors.resolves)
	require.Len(t, repo.donations, 1)
}

/*
TestService_Donate_RejectsInactiveProject verifies that only active projects
accept donations.
*/
func TestService_Donate_RejectsInactiveProject(t *testing.T) {
	service, repo, _ := newTestService(project.StatusDraft)

	record, err := service.Donate(context.Background(), donation.DonateInput{
		ResolveInput: donor.ResolveInput{AuthID: testAuthID},
		ProjectID:    testProjectID,
		AmountCents:  2500,
	})

	assert.Nil(t, record)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNPROCESSABLE"))
	assert.Empty(t, repo.donations)
}

/*
TestService_Donate_ValidatesPayload verifies amount and project id validation.
*/
func TestService_Donate_ValidatesPayload(t *testing.T) {
	service, repo, _ := newTestService(project.StatusActive)

	tests := []struct {
		name   string
		input  donation.DonateInput
		reject bool
	}{
		{
			name: "zero_amount",
			input: donation.DonateInput{
				ResolveInput: donor.ResolveInput{AuthID: testAuthID},
				ProjectID:    testProjectID,
				AmountCents:  0,
			},
			reject: true,
		},
		{
			name: "malformed_project_id",
			input: donation.DonateInput{
				ResolveInput: donor.ResolveInput{AuthID: testAuthID},
				ProjectID:    "not-a-uuid",
				AmountCents:  100,
			},
			reject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Donate(context.Background(), tt.input)
			if tt.reject {
				require.Error(t, err)
				assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
			}
		})
	}
	assert.Empty(t, repo.donations)
}

/*
TestService_ListMine_NoProfileIsEmpty verifies that an identity with no donor
profile has an empty donation history.
*/
func TestService_ListMine_NoProfileIsEmpty(t *testing.T) {
	service, _, donors := newTestService(project.StatusActive)
	donors.profile = nil

	history, err := service.ListMine(context.Background(), testAuthID)

	require.NoError(t, err)
	assert.Empty(t, history)
}
