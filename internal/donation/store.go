// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donation

import "context"

// Repository defines the persistent data access contract for donations.
type Repository interface {

	/*
		Create records a new donation.

		Parameters:
		  - context: context.Context
		  - donation: *Donation

		Returns:
		  - error: Constraint or persistence failures
	*/
	Create(context context.Context, donation *Donation) error

	/*
		ListByDonor returns a donor's donations, newest first.

		Parameters:
		  - context: context.Context
		  - donorID: string

		Returns:
		  - []*Donation: All donations, possibly empty
		  - error: Database retrieval failures
	*/
	ListByDonor(context context.Context, donorID string) ([]*Donation, error)

	/*
		TotalForProject returns the summed amount donated to a project.

		Parameters:
		  - context: context.Context
		  - projectID: string

		Returns:
		  - int64: Total in cents, zero when no donations exist
		  - error: Database retrieval failures
	*/
	TotalForProject(context context.Context, projectID string) (int64, error)
}
