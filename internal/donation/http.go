// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donation

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

// Handler implements donation HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the donation surface. The project total
// is public; everything else requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/projects/{projectID}/total", handler.getProjectTotal)

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/", handler.donate)
		authed.Get("/mine", handler.listMine)
	})

	return router
}

// # Request & Response Payloads

type donateRequest struct {
	ProjectID   string `json:"project_id"`
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message"`
}

type projectTotalResponse struct {
	ProjectID  string `json:"project_id"`
	TotalCents int64  `json:"total_cents"`
}

/*
Donate records a contribution to a project.

POST /api/v1/donations

Request:
  - Body: donateRequest (ProjectID, AmountCents, Message)

Response:
  - 201: Donation: The recorded donation
  - 401: ErrUnauthorized: Authentication required
  - 422: ValidationError: Invalid payload or inactive project
*/
func (handler *Handler) donate(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload donateRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	record, err := handler.service.Donate(request.Context(), DonateInput{
		ResolveInput: donor.ResolveInput{
			AuthID:    claims.AuthID,
			RoleHint:  sec.ParseRole(claims.Role),
			Email:     claims.Email,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
		},
		ProjectID:   payload.ProjectID,
		AmountCents: payload.AmountCents,
		Message:     payload.Message,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, record)
}

/*
ListMine returns the caller's donation history.

GET /api/v1/donations/mine

Response:
  - 200: []Donation: Donation history, newest first
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	donations, err := handler.service.ListMine(request.Context(), claims.AuthID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, donations)
}

/*
GetProjectTotal returns the summed amount donated to a project.

GET /api/v1/donations/projects/{projectID}/total

Response:
  - 200: projectTotalResponse: Total in cents
  - 422: ValidationError: Malformed project id
*/
func (handler *Handler) getProjectTotal(writer http.ResponseWriter, request *http.Request) {
	projectID := requestutil.Param(request, "projectID")

	validator := &validate.Validator{}
	if err := validator.UUID(FieldProjectID, projectID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	total, err := handler.service.ProjectTotal(request.Context(), projectID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, projectTotalResponse{ProjectID: projectID, TotalCents: total})
}
