// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package reconcile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/middleware"
	requestutil "github.com/classraise/classraise/internal/platform/request"
	"github.com/classraise/classraise/internal/platform/respond"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/pkg/query"
)

// # Definitions & Constructors

// Handler implements reconciliation HTTP endpoints.
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler constructs a new [Handler] with its orchestrator dependency.
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Routes returns a [chi.Router] for the authenticated reconciliation surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/status", handler.getStatus)
	router.Post("/refresh", handler.refresh)

	return router
}

func snapshotInputFrom(claims *sec.AuthClaims, projectIDs []string) SnapshotInput {
	return SnapshotInput{
		ResolveInput: donor.ResolveInput{
			AuthID:    claims.AuthID,
			RoleHint:  sec.ParseRole(claims.Role),
			Email:     claims.Email,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
		},
		ProjectIDs: projectIDs,
	}
}

/*
GetStatus returns the reconciled donor snapshot for a page render.

GET /api/v1/me/reconcile/status?project_ids=<id>,<id>,...

Response:
  - 200: Snapshot: Reconciled (or degraded) donor view
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getStatus(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	projectIDs := query.StringSlice(request.URL.Query().Get("project_ids"))

	snapshot, err := handler.orchestrator.Snapshot(request.Context(), snapshotInputFrom(claims, projectIDs))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, snapshot)
}

/*
Refresh purges all cached donor state and rebuilds the snapshot.

POST /api/v1/me/reconcile/refresh

Response:
  - 200: Snapshot: Freshly rebuilt donor view
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot, err := handler.orchestrator.Refresh(request.Context(), snapshotInputFrom(claims, nil))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, snapshot)
}
