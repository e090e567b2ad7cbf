// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donation

import (
	"context"
	"log/slog"

	"github.com/classraise/classraise/internal/core/project"
	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/validate"
	"github.com/classraise/classraise/pkg/uuidv7"
)

// maxMessageLen bounds the optional thank-you note attached to a donation.
const maxMessageLen = 500

// DonorResolver is the slice of the donor resolver the service needs.
type DonorResolver interface {
	Resolve(context context.Context, input donor.ResolveInput) (*donor.Profile, error)
	Peek(context context.Context, authID string) (*donor.Profile, error)
}

// ProjectLoader resolves the target project of a donation.
type ProjectLoader interface {
	Get(context context.Context, id string) (*project.Project, error)
}

// DonateInput carries everything a donation needs, including the identity
// fields a first-time donor resolution requires.
type DonateInput struct {
	donor.ResolveInput
	ProjectID   string
	AmountCents int64
	Message     string
}

// Service implements donation business logic.
type Service struct {
	donations Repository
	donors    DonorResolver
	projects  ProjectLoader
	logger    *slog.Logger
}

// NewService constructs the donation service.
func NewService(donations Repository, donors DonorResolver, projects ProjectLoader, logger *slog.Logger) *Service {
	return &Service{
		donations: donations,
		donors:    donors,
		projects:  projects,
		logger:    logger,
	}
}

/*
Donate records a contribution from the caller to a project.

Description: The acting donor is resolved (and provisioned when absent) from
the caller's identity, so a user's first donation is also their donor
onboarding. Only active projects accept donations.

Parameters:
  - context: context.Context
  - input: DonateInput

Returns:
  - *Donation: The recorded donation
  - error: Validation, resolution, or persistence failures
*/
func (service *Service) Donate(context context.Context, input DonateInput) (*Donation, error) {

	// 1. Validate the payload.
	validator := &validate.Validator{}
	validator.UUID(FieldProjectID, input.ProjectID)
	validator.Positive(FieldAmountCents, input.AmountCents)
	validator.MaxLen(FieldMessage, input.Message, maxMessageLen)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. The target project must exist and be accepting donations.
	target, err := service.projects.Get(context, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if target.Status != project.StatusActive {
		return nil, apperr.Unprocessable("Project is not accepting donations")
	}

	// 3. Resolve the acting donor.
	profile, err := service.donors.Resolve(context, input.ResolveInput)
	if err != nil {
		return nil, err
	}

	// 4. Record the donation.
	record := &Donation{
		ID:          uuidv7.New(),
		DonorID:     profile.ID,
		ProjectID:   input.ProjectID,
		AmountCents: input.AmountCents,
		Message:     input.Message,
	}

	if err := service.donations.Create(context, record); err != nil {
		return nil, err
	}

	service.logger.Info("donation_recorded",
		slog.String("donation_id", record.ID),
		slog.String("project_id", record.ProjectID),
		slog.Int64("amount_cents", record.AmountCents))

	return record, nil
}

/*
ListMine returns the caller's donation history, newest first.

Description: An identity with no donor profile has donated nothing; the read
never provisions a profile.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - []*Donation: Donation history, possibly empty
  - error: Store failures
*/
func (service *Service) ListMine(context context.Context, authID string) ([]*Donation, error) {
	profile, err := service.donors.Peek(context, authID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []*Donation{}, nil
	}

	return service.donations.ListByDonor(context, profile.ID)
}

/*
ProjectTotal returns the summed amount donated to a project.

Parameters:
  - context: context.Context
  - projectID: string

Returns:
  - int64: Total in cents
  - error: Store failures
*/
func (service *Service) ProjectTotal(context context.Context, projectID string) (int64, error) {
	return service.donations.TotalForProject(context, projectID)
}
