// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package wishlist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/dberr"
	"github.com/classraise/classraise/pkg/slice"
	"github.com/classraise/classraise/pkg/uuidv7"
)

// # Contracts & Types

// DonorGateway is the slice of the donor resolver the wishlist needs.
type DonorGateway interface {
	Resolve(context context.Context, input donor.ResolveInput) (*donor.Profile, error)
	Peek(context context.Context, authID string) (*donor.Profile, error)
	Owns(context context.Context, donorID, authID string) (bool, error)
	Invalidate(context context.Context, authID string) error
}

// MutateInput carries everything a wishlist mutation needs. DonorID is
// optional: when the caller already holds a donor id (from a previous
// resolution) it is verified before use; when empty the donor is resolved
// from the identity.
type MutateInput struct {
	donor.ResolveInput
	DonorID   string
	ProjectID string
}

// Service implements wishlist membership over the entry store, the hint
// cache, and the donor resolver.
type Service struct {
	entries  Repository
	cache    Cache
	donors   DonorGateway
	projects ProjectLoader
	logger   *slog.Logger
}

// NewService constructs the wishlist service.
func NewService(entries Repository, cache Cache, donors DonorGateway, projects ProjectLoader, logger *slog.Logger) *Service {
	return &Service{
		entries:  entries,
		cache:    cache,
		donors:   donors,
		projects: projects,
		logger:   logger,
	}
}

// # Mutations

/*
Add saves a project to the caller's wishlist.

Description: Idempotent — saving an already-saved project succeeds silently.
The mutation runs the toggle procedure first and falls back to a direct
insert. A privilege rejection is interpreted as a stale donor linkage: both
hint caches are purged, the donor is re-resolved, and the mutation retries
exactly once.

Parameters:
  - context: context.Context
  - input: MutateInput

Returns:
  - error: Resolution failures or persistent-store errors
*/
func (service *Service) Add(context context.Context, input MutateInput) error {
	return service.mutate(context, input, service.addOnce)
}

/*
Remove deletes a project from the caller's wishlist.

Description: Idempotent — removing an absent project succeeds silently. The
removal walks a ladder: ownership-checked procedure, direct delete by id,
direct delete by pair, and finally the toggle procedure. Privilege rejections
trigger the same purge-and-retry-once recovery as Add.

Parameters:
  - context: context.Context
  - input: MutateInput

Returns:
  - error: Resolution failures or persistent-store errors
*/
func (service *Service) Remove(context context.Context, input MutateInput) error {
	return service.mutate(context, input, service.removeOnce)
}

// mutate resolves the acting donor, runs one mutation attempt, and performs
// the single stale-linkage recovery retry when the store rejects the write.
func (service *Service) mutate(context context.Context, input MutateInput, attempt func(context.Context, string, string) error) error {
	donorID, err := service.resolveDonorID(context, input)
	if err != nil {
		return err
	}

	err = attempt(context, donorID, input.ProjectID)
	if errors.Is(err, ErrRetryRequired) {
		donorID, err = service.recoverDonor(context, input)
		if err != nil {
			return err
		}

		err = attempt(context, donorID, input.ProjectID)
		if errors.Is(err, ErrRetryRequired) {
			// Recovery did not help; this is a genuine authorization problem.
			return apperr.Forbidden("Wishlist update not permitted")
		}
	}
	if err != nil {
		return err
	}

	if cacheErr := service.cache.Invalidate(context, input.AuthID); cacheErr != nil {
		service.logger.Warn("wishlist_cache_invalidate_failed",
			slog.String("auth_id", input.AuthID),
			slog.Any("error", cacheErr))
	}

	return nil
}

// resolveDonorID verifies a caller-supplied donor id or resolves one fresh.
// A supplied id that fails the ownership check is treated as stale, not
// hostile: caches are purged and resolution runs again.
func (service *Service) resolveDonorID(context context.Context, input MutateInput) (string, error) {
	if input.DonorID != "" {
		owns, err := service.donors.Owns(context, input.DonorID, input.AuthID)
		if err != nil {
			return "", err
		}
		if owns {
			return input.DonorID, nil
		}

		service.logger.Warn("wishlist_stale_donor_id",
			slog.String("auth_id", input.AuthID),
			slog.String("supplied_donor_id", input.DonorID))

		return service.recoverDonor(context, input)
	}

	profile, err := service.donors.Resolve(context, input.ResolveInput)
	if err != nil {
		return "", err
	}

	return profile.ID, nil
}

// recoverDonor purges both hint caches and re-resolves the donor from scratch.
func (service *Service) recoverDonor(context context.Context, input MutateInput) (string, error) {
	_ = service.donors.Invalidate(context, input.AuthID)
	_ = service.cache.Invalidate(context, input.AuthID)

	profile, err := service.donors.Resolve(context, input.ResolveInput)
	if err != nil {
		return "", err
	}

	return profile.ID, nil
}

// addOnce performs a single add attempt against the persistent store.
func (service *Service) addOnce(context context.Context, donorID, projectID string) error {
	// 1. Idempotency check.
	_, err := service.entries.Find(context, donorID, projectID)
	if err == nil {
		return nil
	}
	if !dberr.IsNotFound(err) {
		if dberr.IsPermissionDenied(err) {
			return ErrRetryRequired
		}
		return err
	}

	// 2. Preferred path: the atomic toggle procedure.
	added, err := service.entries.Toggle(context, donorID, projectID)
	if err == nil {
		if added {
			return nil
		}
		// A concurrent add raced us and the toggle removed it; fall through
		// to the direct insert to restore the intended state.
	} else if dberr.IsPermissionDenied(err) {
		return ErrRetryRequired
	} else {
		service.logger.Warn("wishlist_toggle_unavailable",
			slog.String("donor_id", donorID),
			slog.Any("error", err))
	}

	// 3. Fallback: direct insert. The unique constraint makes a concurrent
	// duplicate indistinguishable from success, which is exactly the
	// idempotent semantics we want.
	entry := &Entry{
		ID:        uuidv7.New(),
		DonorID:   donorID,
		ProjectID: projectID,
	}

	if err := service.entries.Insert(context, entry); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil
		}
		if dberr.IsPermissionDenied(err) {
			return ErrRetryRequired
		}
		return err
	}

	return nil
}

// removeOnce performs a single remove attempt against the persistent store.
func (service *Service) removeOnce(context context.Context, donorID, projectID string) error {
	entry, err := service.entries.Find(context, donorID, projectID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil
		}
		if dberr.IsPermissionDenied(err) {
			return ErrRetryRequired
		}
		return err
	}

	// 1. Ownership-checked procedure; "already gone" reports success.
	if _, err := service.entries.DeleteEntry(context, entry.ID); err == nil {
		return nil
	} else if dberr.IsPermissionDenied(err) {
		return ErrRetryRequired
	} else {
		service.logger.Warn("wishlist_delete_proc_unavailable",
			slog.String("entry_id", entry.ID),
			slog.Any("error", err))
	}

	// 2. Direct delete by primary key.
	if err := service.entries.DeleteByID(context, entry.ID); err == nil || dberr.IsNotFound(err) {
		return nil
	} else if dberr.IsPermissionDenied(err) {
		return ErrRetryRequired
	} else {
		service.logger.Warn("wishlist_delete_by_id_failed",
			slog.String("entry_id", entry.ID),
			slog.Any("error", err))
	}

	// 3. Direct delete by (donor, project) pair.
	if err := service.entries.DeleteByPair(context, donorID, projectID); err == nil || dberr.IsNotFound(err) {
		return nil
	} else if dberr.IsPermissionDenied(err) {
		return ErrRetryRequired
	} else {
		service.logger.Warn("wishlist_delete_by_pair_failed",
			slog.String("donor_id", donorID),
			slog.Any("error", err))
	}

	// 4. Last resort: the toggle procedure. Presence was confirmed above, so
	// a successful toggle removes the entry.
	nowSaved, err := service.entries.Toggle(context, donorID, projectID)
	if err != nil {
		if dberr.IsPermissionDenied(err) {
			return ErrRetryRequired
		}
		return err
	}
	if nowSaved {
		// The entry vanished between the presence check and the toggle, and
		// the toggle re-created it. Undo directly; a failure here surfaces.
		if err := service.entries.DeleteByPair(context, donorID, projectID); err != nil && !dberr.IsNotFound(err) {
			return err
		}
	}

	return nil
}

// # Reads

/*
IsSaved reports whether the caller has saved the given project.

Description: The hint cache answers fresh snapshots directly; otherwise the
persistent store is consulted. An identity with no donor profile has saved
nothing.

Parameters:
  - context: context.Context
  - authID: string
  - projectID: string

Returns:
  - bool: Membership state
  - error: Store failures
*/
func (service *Service) IsSaved(context context.Context, authID, projectID string) (bool, error) {
	if ids, ok, err := service.cache.GetProjectIDs(context, authID); err == nil && ok {
		for _, id := range ids {
			if id == projectID {
				return true, nil
			}
		}
		return false, nil
	}

	profile, err := service.donors.Peek(context, authID)
	if err != nil {
		return false, err
	}
	if profile == nil {
		return false, nil
	}

	_, err = service.entries.Find(context, profile.ID, projectID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

/*
List returns the caller's saved projects, newest first.

Description: Projects that fail to load are included as placeholders with
Missing set rather than silently dropped, so the listing length always equals
the true entry count. The derived membership snapshot refreshes the hint
cache on the way out.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - []*SavedProject: Saved projects plus placeholders
  - error: Store failures
*/
func (service *Service) List(context context.Context, authID string) ([]*SavedProject, error) {
	profile, err := service.donors.Peek(context, authID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []*SavedProject{}, nil
	}

	entries, err := service.entries.ListByDonor(context, profile.ID)
	if err != nil {
		return nil, err
	}

	saved := make([]*SavedProject, 0, len(entries))

	for _, entry := range entries {
		item := &SavedProject{
			EntryID:   entry.ID,
			ProjectID: entry.ProjectID,
			SavedAt:   entry.CreatedAt,
		}

		loaded, loadErr := service.projects.Get(context, entry.ProjectID)
		if loadErr != nil {
			item.Missing = true
			service.logger.Warn("wishlist_project_load_failed",
				slog.String("project_id", entry.ProjectID),
				slog.Any("error", loadErr))
		} else {
			item.Project = loaded
		}

		saved = append(saved, item)
	}

	projectIDs := slice.Map(entries, func(entry *Entry) string { return entry.ProjectID })
	if err := service.cache.SetProjectIDs(context, authID, projectIDs); err != nil {
		service.logger.Warn("wishlist_cache_refresh_failed",
			slog.String("auth_id", authID),
			slog.Any("error", err))
	}

	return saved, nil
}

/*
Count returns the caller's wishlist size.

Description: Always re-derived from the persistent store; the hint cache is
never trusted for counts, but the derived snapshot is written back to it as a
hint on the way out. An identity with no donor profile counts zero.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - int: Entry count
  - error: Store failures
*/
func (service *Service) Count(context context.Context, authID string) (int, error) {
	profile, err := service.donors.Peek(context, authID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, nil
	}

	entries, err := service.entries.ListByDonor(context, profile.ID)
	if err != nil {
		return 0, err
	}

	projectIDs := slice.Map(entries, func(entry *Entry) string { return entry.ProjectID })
	if err := service.cache.SetProjectIDs(context, authID, projectIDs); err != nil {
		service.logger.Warn("wishlist_cache_refresh_failed",
			slog.String("auth_id", authID),
			slog.Any("error", err))
	}

	return len(entries), nil
}

/*
Status reports membership for a specific set of projects.

Description: One store round trip regardless of how many project ids are
asked about; used by the reconciliation snapshot when a page renders many
save buttons at once.

Parameters:
  - context: context.Context
  - donorID: string
  - projectIDs: []string

Returns:
  - map[string]bool: Membership per requested project id
  - error: Store failures
*/
func (service *Service) Status(context context.Context, donorID string, projectIDs []string) (map[string]bool, error) {
	entries, err := service.entries.ListByDonor(context, donorID)
	if err != nil {
		return nil, err
	}

	saved := make(map[string]bool, len(entries))
	for _, entry := range entries {
		saved[entry.ProjectID] = true
	}

	status := make(map[string]bool, len(projectIDs))
	for _, projectID := range projectIDs {
		status[projectID] = saved[projectID]
	}

	return status, nil
}

/*
InvalidateCache drops the identity's membership hint.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - error: Cache delete failures
*/
func (service *Service) InvalidateCache(context context.Context, authID string) error {
	return service.cache.Invalidate(context, authID)
}
