// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package donation records contributions from donors to classroom projects.

Donations are append-only: once recorded they are never updated or deleted,
and project fundraising totals are always derived by summation rather than
kept as counters.
*/
package donation

import "time"

// Donation represents a single recorded contribution.
type Donation struct {
	ID          string    `json:"id"`
	DonorID     string    `json:"donor_id"`
	ProjectID   string    `json:"project_id"`
	AmountCents int64     `json:"amount_cents"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Field name constants for validation errors.
const (
	FieldProjectID   = "project_id"
	FieldAmountCents = "amount_cents"
	FieldMessage     = "message"
)
