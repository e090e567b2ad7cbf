// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classraise/classraise/internal/platform/constants"
	"github.com/classraise/classraise/internal/platform/middleware"
	requestutil "github.com/classraise/classraise/internal/platform/request"
	"github.com/classraise/classraise/internal/platform/respond"
	"github.com/classraise/classraise/internal/platform/validate"
)

// maxAvatarBytes caps profile image uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// # Definitions & Constructors

// Handler implements account management HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] for the authenticated /me surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.getProfile)
	router.Patch("/", handler.updateProfile)
	router.Delete("/", handler.deleteAccount)
	router.Put("/avatar", handler.uploadAvatar)

	router.Get("/sessions", handler.listSessions)
	router.Delete("/sessions/{sessionID}", handler.revokeSession)
	router.Post("/sessions/revoke-others", handler.revokeOtherSessions)

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

/*
GetProfile returns the authenticated user's private profile.

GET /api/v1/me

Response:
  - 200: identity.User: Full private profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateProfile applies partial changes to the authenticated user's profile.

PATCH /api/v1/me

Request:
  - Body: updateProfileRequest (FirstName, LastName; omitted fields unchanged)

Response:
  - 200: identity.User: Updated profile
  - 400: ErrInvalidJSON: Malformed body
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), claims.UserID, UpdateProfileInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UploadAvatar replaces the authenticated user's profile image.

PUT /api/v1/me/avatar

Request:
  - Multipart form with an "avatar" file part (JPEG, PNG or WebP, max 5 MiB)

Response:
  - 200: identity.User: Profile with the refreshed avatar URL
  - 422: ErrUnprocessable: Unsupported media type
*/
func (handler *Handler) uploadAvatar(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, maxAvatarBytes)
	if err := request.ParseMultipartForm(maxAvatarBytes); err != nil {
		respond.Error(writer, request, validate.RequiredError("avatar", "must be a multipart upload under 5 MiB"))
		return
	}

	file, header, err := request.FormFile("avatar")
	if err != nil {
		respond.Error(writer, request, validate.RequiredError("avatar", "is required"))
		return
	}
	defer file.Close()

	user, err := handler.accountService.UploadAvatar(
		request.Context(),
		claims.UserID,
		file,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteAccount soft-deletes the authenticated user's account.

DELETE /api/v1/me

Response:
  - 204: No Content: Account flagged as deleted, sessions revoked
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListSessions returns all active device sessions for the user.

GET /api/v1/me/sessions

Response:
  - 200: []SessionInfo: Active sessions, newest first
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
RevokeSession terminates a specific device session.

DELETE /api/v1/me/sessions/{sessionID}

Response:
  - 204: No Content: Session revoked
  - 404: ErrNotFound: Session does not exist or belongs to another user
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := chi.URLParam(request, "sessionID")

	validator := &validate.Validator{}
	validator.UUID("session_id", sessionID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeSession(request.Context(), claims.UserID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
RevokeOtherSessions terminates all sessions except the caller's current one.

POST /api/v1/me/sessions/revoke-others

Response:
  - 204: No Content: Other sessions revoked
*/
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	currentToken := ""
	if cookie, cookieErr := request.Cookie(constants.RefreshTokenCookieName); cookieErr == nil {
		currentToken = cookie.Value
	}

	if err := handler.accountService.RevokeOtherSessions(request.Context(), claims.UserID, currentToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
