// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donor

import (
	"context"
	"log/slog"

	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/dberr"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/users/identity"
	"github.com/classraise/classraise/pkg/uuidv7"
)

// # Contracts & Types

// IdentityResolver maps auth identity ids to application user rows.
type IdentityResolver interface {
	Resolve(context context.Context, input identity.ResolveInput) (*identity.User, error)
}

// ResolveInput carries the caller's identity and token hints into resolution.
type ResolveInput struct {
	AuthID    string
	RoleHint  sec.UserRole
	Email     string
	FirstName string
	LastName  string
}

// Resolver resolves the caller's donor profile through a fixed ladder of
// strategies, each cheaper or more authoritative than the next:
//
//  1. verify_cached  — trust the hint cache only after re-reading the row.
//  2. lookup_direct  — query the profile table by resolved user id.
//  3. provision      — server-side get-or-create procedure (elevated privileges).
//  4. create_direct  — plain insert, with the unique constraint as tie-breaker.
//
// A strategy that cannot produce a profile either passes (profile genuinely
// absent at that layer) or reports a transient failure; either way the next
// strategy runs. Only when the whole ladder is exhausted does resolution fail,
// with DONOR_PROFILE_UNAVAILABLE.
type Resolver struct {
	profiles   Repository
	cache      Cache
	identities IdentityResolver
	logger     *slog.Logger
}

// NewResolver constructs a donor profile resolver.
func NewResolver(profiles Repository, cache Cache, identities IdentityResolver, logger *slog.Logger) *Resolver {
	return &Resolver{
		profiles:   profiles,
		cache:      cache,
		identities: identities,
		logger:     logger,
	}
}

// outcome is the tri-state result of a single resolution strategy.
type outcome int

const (
	outcomeResolved outcome = iota // Profile found; stop the ladder.
	outcomeNotFound                // Layer answered definitively: no profile here.
	outcomeFailed                  // Layer unavailable; try the next one.
)

// resolution accumulates state across the strategy ladder for one request.
type resolution struct {
	input   ResolveInput
	user    *identity.User
	profile *Profile
	lastErr error
}

type strategy struct {
	name string
	run  func(context.Context, *resolution) (outcome, error)
}

/*
Resolve returns the donor profile for the calling identity, provisioning one
if this is the user's first donor action.

Description: Runs the strategy ladder in order. The winning profile is written
back to the hint cache with a fresh fetch timestamp, and the setup-complete
flag is set so repeat visits can skip onboarding UI.

Parameters:
  - context: context.Context
  - input: ResolveInput (AuthID required)

Returns:
  - *Profile: The resolved donor profile
  - error: apperr.IdentityLookupFailed or apperr.DonorProfileUnavailable
*/
func (resolver *Resolver) Resolve(context context.Context, input ResolveInput) (*Profile, error) {
	if input.AuthID == "" {
		return nil, apperr.Unauthorized("Missing identity")
	}

	state := &resolution{input: input}

	strategies := []strategy{
		{name: "verify_cached", run: resolver.verifyCached},
		{name: "lookup_direct", run: resolver.lookupDirect},
		{name: "provision", run: resolver.provision},
		{name: "create_direct", run: resolver.createDirect},
	}

	for _, candidate := range strategies {
		result, err := candidate.run(context, state)

		switch result {
		case outcomeResolved:
			resolver.cacheResolved(context, input.AuthID, state.profile)
			return state.profile, nil

		case outcomeNotFound:
			continue

		case outcomeFailed:
			// Identity failures are terminal: without a user row no later
			// strategy can succeed either.
			if apperr.IsCode(err, "IDENTITY_LOOKUP_FAILED") {
				return nil, err
			}

			state.lastErr = err
			resolver.logger.Warn("donor_resolution_step_failed",
				slog.String("strategy", candidate.name),
				slog.String("auth_id", input.AuthID),
				slog.Any("error", err))
		}
	}

	resolver.logger.Error("donor_resolution_exhausted",
		slog.String("auth_id", input.AuthID),
		slog.Any("last_error", state.lastErr))

	return nil, apperr.DonorProfileUnavailable(state.lastErr)
}

// ensureUser resolves and memoizes the application user for this request.
func (resolver *Resolver) ensureUser(context context.Context, state *resolution) (*identity.User, error) {
	if state.user != nil {
		return state.user, nil
	}

	user, err := resolver.identities.Resolve(context, identity.ResolveInput{
		AuthID:    state.input.AuthID,
		RoleHint:  state.input.RoleHint,
		Email:     state.input.Email,
		FirstName: state.input.FirstName,
		LastName:  state.input.LastName,
	})
	if err != nil {
		return nil, err
	}

	state.user = user
	return user, nil
}

// verifyCached checks the hint cache and re-reads the referenced row before
// trusting it. Eviction rather than failure is the response to every anomaly:
// a missing row, an ownership mismatch, or a stale fetch timestamp.
func (resolver *Resolver) verifyCached(context context.Context, state *resolution) (outcome, error) {
	cached, err := resolver.cache.Get(context, state.input.AuthID)
	if err != nil {
		return outcomeFailed, err
	}
	if cached == nil {
		return outcomeNotFound, nil
	}

	if !cached.Fresh() {
		// Past the freshness window: re-derive from the store instead.
		return outcomeNotFound, nil
	}

	verified, err := resolver.profiles.FindByID(context, cached.Profile.ID)
	if err != nil {
		if dberr.IsNotFound(err) {
			resolver.evict(context, state.input.AuthID, "cached_profile_gone")
			return outcomeNotFound, nil
		}
		return outcomeFailed, err
	}

	user, err := resolver.ensureUser(context, state)
	if err != nil {
		return outcomeFailed, err
	}

	if verified.UserID != user.ID {
		// The cache is pointing at somebody else's profile. Purge and rebuild.
		resolver.evict(context, state.input.AuthID, "cached_profile_owner_mismatch")
		return outcomeNotFound, nil
	}

	state.profile = verified
	return outcomeResolved, nil
}

// lookupDirect queries the profile table by the resolved user id.
func (resolver *Resolver) lookupDirect(context context.Context, state *resolution) (outcome, error) {
	user, err := resolver.ensureUser(context, state)
	if err != nil {
		return outcomeFailed, err
	}

	profile, err := resolver.profiles.FindByUserID(context, user.ID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return outcomeNotFound, nil
		}
		return outcomeFailed, err
	}

	state.profile = profile
	return outcomeResolved, nil
}

// provision invokes the server-side get-or-create procedure.
func (resolver *Resolver) provision(context context.Context, state *resolution) (outcome, error) {
	user, err := resolver.ensureUser(context, state)
	if err != nil {
		return outcomeFailed, err
	}

	profile, err := resolver.profiles.Provision(context, user.ID, false)
	if err != nil {
		return outcomeFailed, err
	}

	resolver.logger.Info("donor_profile_provisioned",
		slog.String("user_id", user.ID),
		slog.String("profile_id", profile.ID))

	state.profile = profile
	return outcomeResolved, nil
}

// createDirect inserts a profile row as the last resort. A unique violation
// means a concurrent request won the race; the constraint is the tie-breaker
// and the winner's row is adopted.
func (resolver *Resolver) createDirect(context context.Context, state *resolution) (outcome, error) {
	user, err := resolver.ensureUser(context, state)
	if err != nil {
		return outcomeFailed, err
	}

	// Immediately-before check: the provision step may have failed while a
	// parallel request created the row in the meantime.
	existing, err := resolver.profiles.FindByUserID(context, user.ID)
	if err == nil {
		state.profile = existing
		return outcomeResolved, nil
	}
	if !dberr.IsNotFound(err) {
		return outcomeFailed, err
	}

	profile := &Profile{
		ID:     uuidv7.New(),
		UserID: user.ID,
	}

	if err := resolver.profiles.Create(context, profile); err != nil {
		if dberr.IsUniqueViolation(err) {
			winner, findErr := resolver.profiles.FindByUserID(context, user.ID)
			if findErr != nil {
				return outcomeFailed, findErr
			}
			state.profile = winner
			return outcomeResolved, nil
		}
		return outcomeFailed, err
	}

	resolver.logger.Info("donor_profile_created",
		slog.String("user_id", user.ID),
		slog.String("profile_id", profile.ID))

	state.profile = profile
	return outcomeResolved, nil
}

// cacheResolved writes the winning profile back to the hint cache. Failures
// are logged and swallowed; the cache is never load-bearing.
func (resolver *Resolver) cacheResolved(context context.Context, authID string, profile *Profile) {
	if err := resolver.cache.Set(context, authID, profile); err != nil {
		resolver.logger.Warn("donor_cache_write_failed",
			slog.String("auth_id", authID),
			slog.Any("error", err))
		return
	}
	_ = resolver.cache.MarkSetupComplete(context, authID)
}

// evict drops the cached profile and logs why.
func (resolver *Resolver) evict(context context.Context, authID, reason string) {
	resolver.logger.Info("donor_cache_evicted",
		slog.String("auth_id", authID),
		slog.String("reason", reason))
	_ = resolver.cache.Remove(context, authID)
}

// # Ownership & Preferences

/*
Owns reports whether the given donor profile belongs to the calling identity.

Description: Used by write paths that receive a donor id from the client (which
may originate from a stale cache on another device). A missing profile or an
ownership mismatch both report false without error; callers decide whether to
re-resolve.

Parameters:
  - context: context.Context
  - donorID: string
  - authID: string

Returns:
  - bool: True when the profile exists and belongs to this identity
  - error: Store or identity failures
*/
func (resolver *Resolver) Owns(context context.Context, donorID, authID string) (bool, error) {
	profile, err := resolver.profiles.FindByID(context, donorID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	user, err := resolver.identities.Resolve(context, identity.ResolveInput{AuthID: authID})
	if err != nil {
		return false, err
	}

	return profile.UserID == user.ID, nil
}

/*
Peek returns the caller's donor profile without provisioning one.

Description: Read paths that must stay side-effect free (wishlist counts and
listings) use Peek: an identity that has never acted as a donor simply gets a
nil profile instead of a freshly created one.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - *Profile: The profile, or nil when none exists
  - error: Store or identity failures
*/
func (resolver *Resolver) Peek(context context.Context, authID string) (*Profile, error) {
	if authID == "" {
		return nil, apperr.Unauthorized("Missing identity")
	}

	state := &resolution{input: ResolveInput{AuthID: authID}}

	// Cache first, with the same verification discipline as Resolve.
	if result, err := resolver.verifyCached(context, state); err == nil && result == outcomeResolved {
		return state.profile, nil
	}

	user, err := resolver.ensureUser(context, state)
	if err != nil {
		return nil, err
	}

	profile, err := resolver.profiles.FindByUserID(context, user.ID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	resolver.cacheResolved(context, authID, profile)
	return profile, nil
}

/*
Invalidate purges every cached hint for the identity.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - error: Cache delete failures
*/
func (resolver *Resolver) Invalidate(context context.Context, authID string) error {
	return resolver.cache.Remove(context, authID)
}

/*
SetAnonymity updates the donor's public-visibility preference.

Parameters:
  - context: context.Context
  - input: ResolveInput
  - isAnonymous: bool

Returns:
  - *Profile: The updated profile
  - error: Resolution or persistence failures
*/
func (resolver *Resolver) SetAnonymity(context context.Context, input ResolveInput, isAnonymous bool) (*Profile, error) {
	profile, err := resolver.Resolve(context, input)
	if err != nil {
		return nil, err
	}

	if err := resolver.profiles.UpdateAnonymity(context, profile.ID, isAnonymous); err != nil {
		return nil, err
	}

	profile.IsAnonymous = isAnonymous
	resolver.cacheResolved(context, input.AuthID, profile)

	return profile, nil
}

/*
SetupComplete reports whether this identity has a cached onboarding flag.

Description: Pure UI hint for skipping the donor onboarding prompt; a false
answer is always safe and simply shows the prompt again.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - bool: Flag state
*/
func (resolver *Resolver) SetupComplete(context context.Context, authID string) bool {
	done, err := resolver.cache.IsSetupComplete(context, authID)
	if err != nil {
		return false
	}
	return done
}
