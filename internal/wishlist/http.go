// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package wishlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/middleware"
	requestutil "github.com/classraise/classraise/internal/platform/request"
	"github.com/classraise/classraise/internal/platform/respond"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements wishlist HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the authenticated wishlist surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listSaved)
	router.Get("/count", handler.countSaved)
	router.Get("/contains/{projectID}", handler.containsProject)
	router.Put("/{projectID}", handler.addProject)
	router.Delete("/{projectID}", handler.removeProject)

	return router
}

// # Response Payloads

type countResponse struct {
	Count int `json:"count"`
}

type containsResponse struct {
	ProjectID string `json:"project_id"`
	Saved     bool   `json:"saved"`
}

func mutateInputFrom(claims *sec.AuthClaims, projectID string) MutateInput {
	return MutateInput{
		ResolveInput: donor.ResolveInput{
			AuthID:    claims.AuthID,
			RoleHint:  sec.ParseRole(claims.Role),
			Email:     claims.Email,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
		},
		ProjectID: projectID,
	}
}

func requireProjectID(request *http.Request) (string, error) {
	projectID := requestutil.Param(request, "projectID")

	validator := &validate.Validator{}
	if err := validator.UUID(FieldProjectID, projectID).Err(); err != nil {
		return "", err
	}

	return projectID, nil
}

/*
ListSaved returns the caller's saved projects, newest first.

GET /api/v1/me/wishlist

Response:
  - 200: []SavedProject: Saved projects, missing ones as placeholders
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listSaved(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	saved, err := handler.service.List(request.Context(), claims.AuthID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, saved)
}

/*
CountSaved returns the caller's wishlist size.

GET /api/v1/me/wishlist/count

Response:
  - 200: countResponse: Entry count, zero when no donor profile exists
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) countSaved(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.service.Count(request.Context(), claims.AuthID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, countResponse{Count: count})
}

/*
ContainsProject reports whether the caller has saved a specific project.

GET /api/v1/me/wishlist/contains/{projectID}

Response:
  - 200: containsResponse: Membership state
  - 401: ErrUnauthorized: Authentication required
  - 422: ValidationError: Malformed project id
*/
func (handler *Handler) containsProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	projectID, err := requireProjectID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	saved, err := handler.service.IsSaved(request.Context(), claims.AuthID, projectID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, containsResponse{ProjectID: projectID, Saved: saved})
}

/*
AddProject saves a project to the caller's wishlist.

PUT /api/v1/me/wishlist/{projectID}

Response:
  - 204: Saved (idempotent; already-saved also responds 204)
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Update rejected even after linkage recovery
  - 422: ValidationError: Malformed project id
*/
func (handler *Handler) addProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	projectID, err := requireProjectID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Add(request.Context(), mutateInputFrom(claims, projectID)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
RemoveProject deletes a project from the caller's wishlist.

DELETE /api/v1/me/wishlist/{projectID}

Response:
  - 204: Removed (idempotent; already-absent also responds 204)
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Update rejected even after linkage recovery
  - 422: ValidationError: Malformed project id
*/
func (handler *Handler) removeProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	projectID, err := requireProjectID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Remove(request.Context(), mutateInputFrom(claims, projectID)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
