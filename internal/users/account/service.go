// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package account

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/objstore"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/users/identity"
	"github.com/classraise/classraise/pkg/pointer"
)

// # Service Layer

// Service orchestrates business logic for user accounts and profile images.
//
// It ensures that profile updates, avatar storage, and session security
// cleanup follow established business constraints.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	images            *objstore.Store
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	images *objstore.Store,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		images:            images,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *identity.User: The hydrated user profile with a resolved avatar URL
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*identity.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}

	user.AvatarURL = service.images.PublicURL(user.AvatarKey)
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *identity.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*identity.User, error) {

	// Business: Ensure the user exists before mutating
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	user.FirstName = pointer.Fallback(input.FirstName, user.FirstName)
	user.LastName = pointer.Fallback(input.LastName, user.LastName)

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	user.AvatarURL = service.images.PublicURL(user.AvatarKey)
	return user, nil
}

// avatarExtensions maps accepted upload content types to stored file extensions.
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

/*
UploadAvatar stores a new profile image and links it to the account.

Description: Streams the image into object storage under a deterministic key
so re-uploads overwrite the previous avatar instead of accumulating orphans.

Parameters:
  - context: context.Context
  - userID: string
  - body: io.Reader (Image bytes)
  - contentType: string

Returns:
  - *identity.User: The profile with the refreshed avatar URL
  - error: Unsupported media type, storage or persistence failures
*/
func (service *Service) UploadAvatar(context context.Context, userID string, body io.Reader, contentType string) (*identity.User, error) {
	extension, ok := avatarExtensions[contentType]
	if !ok {
		return nil, apperr.Unprocessable("Unsupported image type; use JPEG, PNG or WebP")
	}

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_avatar_lookup_failed: %w", err)
	}

	key := fmt.Sprintf("avatars/%s%s", userID, extension)
	if err := service.images.Upload(context, key, body, contentType); err != nil {
		return nil, fmt.Errorf("account_service_avatar_upload_failed: %w", err)
	}

	// Content type may have changed between uploads; drop the stale object.
	if user.AvatarKey != "" && user.AvatarKey != key {
		_ = service.images.Delete(context, user.AvatarKey)
	}

	user.AvatarKey = key
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_avatar_persist_failed: %w", err)
	}

	service.logger.Info("user_avatar_updated", slog.String("user_id", userID))

	user.AvatarURL = service.images.PublicURL(key)
	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted and immediately terminates all active
security sessions to force a global sign-out.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {

	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	_ = service.sessionRepository.RevokeAll(context, userID)

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Session Security

/*
ListSessions provides a list of all active device sessions for the user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []SessionInfo: List of active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userID string) ([]SessionInfo, error) {
	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	return sessions, nil
}

/*
RevokeSession terminates a specific user session by its ID.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeSession(context context.Context, userID, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	return nil
}

/*
RevokeOtherSessions terminates all sessions except for the current active one.

Description: The current session is identified by its refresh token; an empty
token revokes every session including the caller's own.

Parameters:
  - context: context.Context
  - userID: string
  - currentRefreshToken: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeOtherSessions(context context.Context, userID, currentRefreshToken string) error {
	keepHash := ""
	if currentRefreshToken != "" {
		keepHash = sec.HashToken(currentRefreshToken)
	}

	if err := service.sessionRepository.RevokeOthers(context, userID, keepHash); err != nil {
		return fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}

	service.logger.Info("user_other_sessions_revoked", slog.String("user_id", userID))

	return nil
}
