// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classraise/classraise/internal/platform/middleware"
	requestutil "github.com/classraise/classraise/internal/platform/request"
	"github.com/classraise/classraise/internal/platform/respond"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements donor profile HTTP endpoints.
type Handler struct {
	resolver *Resolver
}

// NewHandler constructs a new [Handler] with its resolver dependency.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Routes returns a [chi.Router] for the authenticated donor profile surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.getProfile)
	router.Patch("/", handler.updatePreferences)

	return router
}

// # Request Payloads

type updatePreferencesRequest struct {
	IsAnonymous *bool `json:"is_anonymous"`
}

// profileResponse decorates the profile with the onboarding hint the UI uses
// to decide whether to show the donor setup prompt.
type profileResponse struct {
	*Profile
	SetupComplete bool `json:"setup_complete"`
}

// resolveInputFrom maps verified token claims to a resolution input.
func resolveInputFrom(claims *sec.AuthClaims) ResolveInput {
	return ResolveInput{
		AuthID:    claims.AuthID,
		RoleHint:  sec.ParseRole(claims.Role),
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
}

/*
GetProfile resolves (and if necessary provisions) the caller's donor profile.

GET /api/v1/me/donor

Response:
  - 200: profileResponse: Donor profile plus onboarding state
  - 401: ErrUnauthorized: Authentication required
  - 503: DONOR_PROFILE_UNAVAILABLE: Every resolution layer failed
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.resolver.Resolve(request.Context(), resolveInputFrom(claims))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{
		Profile:       profile,
		SetupComplete: handler.resolver.SetupComplete(request.Context(), claims.AuthID),
	})
}

/*
UpdatePreferences changes donor-level preferences (currently anonymity).

PATCH /api/v1/me/donor

Request:
  - Body: updatePreferencesRequest (IsAnonymous)

Response:
  - 200: Profile: Updated donor profile
  - 400: ErrInvalidJSON: Malformed or empty body
*/
func (handler *Handler) updatePreferences(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePreferencesRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.IsAnonymous == nil {
		respond.Error(writer, request, validate.RequiredError(FieldIsAnonymous, "is required"))
		return
	}

	profile, err := handler.resolver.SetAnonymity(request.Context(), resolveInputFrom(claims), *input.IsAnonymous)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
