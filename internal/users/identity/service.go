// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package identity

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/dberr"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/pkg/uuidv7"
)

// # Identity Resolution Service

// ResolveInput carries everything known about a caller's identity at request
// time. AuthID is mandatory; the remaining fields are hints propagated from
// the verified token and are only consulted when a row has to be created or
// corrected.
type ResolveInput struct {
	AuthID    string
	RoleHint  sec.UserRole
	Email     string
	FirstName string
	LastName  string
}

// Service resolves auth identity ids to application user rows.
//
// Resolution is lookup-or-create: a missing row is created on the spot using
// the token hints, so the rest of the system can assume a User always exists
// for an authenticated caller. When the store itself is unreachable the
// resolver fails closed with IDENTITY_LOOKUP_FAILED rather than minting a row
// it cannot verify.
type Service struct {
	users  Repository
	logger *slog.Logger

	// duplicateIdentities counts lookups that surfaced more than one row for
	// a single auth id. Exposed through Stats for dashboards and alerting.
	duplicateIdentities atomic.Int64
}

// NewService creates the identity resolution service.
func NewService(users Repository, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		logger: logger,
	}
}

// Stats reports resolver health counters.
type Stats struct {
	DuplicateIdentities int64 `json:"duplicate_identities"`
}

// Stats returns a snapshot of the resolver's anomaly counters.
func (service *Service) Stats() Stats {
	return Stats{DuplicateIdentities: service.duplicateIdentities.Load()}
}

/*
Resolve maps an auth identity id to its application user row, creating the
row if this identity has never been seen before.

Description: The verified token is authoritative for role assignments. When
the stored role disagrees with a non-empty role hint, the stored row is
corrected in place and the corrected entity returned. Duplicate rows for one
identity are tolerated: the oldest row wins, the anomaly is logged and
counted, and resolution proceeds.

Parameters:
  - context: context.Context
  - input: ResolveInput (AuthID required, hints optional)

Returns:
  - *User: The resolved (possibly freshly created) user
  - error: Validation failures or apperr.IdentityLookupFailed
*/
func (service *Service) Resolve(context context.Context, input ResolveInput) (*User, error) {
	// 1. Reject unauthenticated callers outright.
	if input.AuthID == "" {
		return nil, apperr.Unauthorized("Missing identity")
	}

	// 2. Look up every row linked to this identity.
	matches, err := service.users.FindByAuthID(context, input.AuthID)
	switch {
	case err == nil:
		user := service.pickPrimary(input.AuthID, matches)
		return service.applyRoleHint(context, user, input.RoleHint)

	case dberr.IsNotFound(err):
		return service.createFromHints(context, input)

	default:
		// 3. Store unreachable: fail closed, never fabricate a row.
		service.logger.Error("identity_lookup_failed",
			slog.String("auth_id", input.AuthID),
			slog.Any("error", err))
		return nil, apperr.IdentityLookupFailed(err)
	}
}

/*
pickPrimary selects the canonical row when a lookup surfaced duplicates.

Description: Matches arrive oldest-first from the store, so element zero is
the deterministic winner. Anything beyond one row is a data-quality incident:
it is logged with the losing ids and counted, but never fails the request.

Parameters:
  - authID: string
  - matches: []*User (non-empty, oldest first)

Returns:
  - *User: The canonical row
*/
func (service *Service) pickPrimary(authID string, matches []*User) *User {
	primary := matches[0]

	if len(matches) > 1 {
		service.duplicateIdentities.Add(1)

		shadowed := make([]string, 0, len(matches)-1)
		for _, extra := range matches[1:] {
			shadowed = append(shadowed, extra.ID)
		}

		service.logger.Warn("duplicate_identity_rows",
			slog.String("auth_id", authID),
			slog.String("primary_user_id", primary.ID),
			slog.Any("shadowed_user_ids", shadowed),
			slog.Int("match_count", len(matches)))
	}

	return primary
}

/*
applyRoleHint reconciles the stored role with the token's role claim.

Description: The token issuer is the source of truth for roles. An empty hint
leaves the row untouched. A persistence failure during correction is logged
but non-fatal; the corrected role is still returned in memory so the current
request behaves correctly.

Parameters:
  - context: context.Context
  - user: *User
  - hint: sec.UserRole

Returns:
  - *User: The (possibly corrected) user
  - error: Always nil today; kept for interface symmetry with Resolve
*/
func (service *Service) applyRoleHint(context context.Context, user *User, hint sec.UserRole) (*User, error) {
	if hint == "" || hint == user.Role {
		return user, nil
	}

	service.logger.Info("identity_role_corrected",
		slog.String("user_id", user.ID),
		slog.String("stored_role", string(user.Role)),
		slog.String("hinted_role", string(hint)))

	user.Role = hint
	if err := service.users.Update(context, user); err != nil {
		service.logger.Error("identity_role_correction_persist_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	return user, nil
}

/*
createFromHints lazily registers a user row for a first-seen identity.

Description: Role defaults to donor when the token carries no role claim.
A unique violation on authid means another request won the creation race;
the store's constraint is treated as the tie-breaker and the winner's row is
re-read and returned.

Parameters:
  - context: context.Context
  - input: ResolveInput

Returns:
  - *User: The created (or concurrently created) user
  - error: apperr.IdentityLookupFailed on persistence problems
*/
func (service *Service) createFromHints(context context.Context, input ResolveInput) (*User, error) {
	role := input.RoleHint
	if role == "" {
		role = sec.RoleDonor
	}

	user := &User{
		ID:        uuidv7.New(),
		AuthID:    input.AuthID,
		Email:     input.Email,
		Role:      role,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}

	err := service.users.Create(context, user)
	if err == nil {
		service.logger.Info("identity_row_created",
			slog.String("user_id", user.ID),
			slog.String("role", string(role)))
		return user, nil
	}

	if dberr.IsUniqueViolation(err) {
		matches, findErr := service.users.FindByAuthID(context, input.AuthID)
		if findErr != nil {
			return nil, apperr.IdentityLookupFailed(findErr)
		}
		return service.pickPrimary(input.AuthID, matches), nil
	}

	service.logger.Error("identity_row_create_failed",
		slog.String("auth_id", input.AuthID),
		slog.Any("error", err))
	return nil, apperr.IdentityLookupFailed(err)
}
