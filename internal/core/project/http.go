package project

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classraise/classraise/internal/platform/middleware"
	requestutil "github.com/classraise/classraise/internal/platform/request"
	"github.com/classraise/classraise/internal/platform/respond"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/platform/validate"
	"github.com/classraise/classraise/pkg/pagination"
)

// maxCoverBytes caps project cover uploads at 10 MiB.
const maxCoverBytes = 10 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listProjects)
	router.Get("/{id}", handler.getProject)
	router.Get("/by-slug/{slug}", handler.getProjectBySlug)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireRole(sec.RoleTeacher))
		r.Post("/", handler.createProject)
		r.Patch("/{id}", handler.updateProject)
		r.Put("/{id}/cover", handler.uploadCover)
	})
}

type createProjectRequest struct {
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalCents   int64  `json:"goal_cents"`
}

type updateProjectRequest struct {
	CategoryID  *string `json:"category_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	GoalCents   *int64  `json:"goal_cents"`
	Status      *string `json:"status"`
}

func (handler *Handler) listProjects(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)
	filter := ListFilter{
		CategoryID: request.URL.Query().Get("category_id"),
		TeacherID:  request.URL.Query().Get("teacher_id"),
		Status:     request.URL.Query().Get("status"),
	}

	// Public listings default to campaigns that accept donations.
	if filter.Status == "" && filter.TeacherID == "" {
		filter.Status = StatusActive
	}

	projects, total, err := handler.service.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, projects, pagination.NewMeta(page.Page, page.Limit, total))
}

func (handler *Handler) getProject(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	project, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, project)
}

func (handler *Handler) getProjectBySlug(writer http.ResponseWriter, request *http.Request) {
	projectSlug := chi.URLParam(request, "slug")

	project, err := handler.service.GetBySlug(request.Context(), projectSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, project)
}

func (handler *Handler) createProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createProjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("title", input.Title).
		MinLen("title", input.Title, 3).
		Required("category_id", input.CategoryID).
		UUID("category_id", input.CategoryID).
		Positive("goal_cents", input.GoalCents)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	project, err := handler.service.Create(request.Context(), CreateInput{
		TeacherID:   claims.UserID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Description: input.Description,
		GoalCents:   input.GoalCents,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, project)
}

func (handler *Handler) updateProject(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	isAdmin := sec.UserRole(claims.Role) == sec.RoleAdmin
	project, err := handler.service.Update(
		request.Context(),
		requestutil.ID(request, "id"),
		claims.UserID,
		isAdmin,
		UpdateInput{
			CategoryID:  input.CategoryID,
			Title:       input.Title,
			Description: input.Description,
			GoalCents:   input.GoalCents,
			Status:      input.Status,
		},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, project)
}

func (handler *Handler) uploadCover(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, maxCoverBytes)
	if err := request.ParseMultipartForm(maxCoverBytes); err != nil {
		respond.Error(writer, request, validate.RequiredError("cover", "must be a multipart upload under 10 MiB"))
		return
	}

	file, header, err := request.FormFile("cover")
	if err != nil {
		respond.Error(writer, request, validate.RequiredError("cover", "is required"))
		return
	}
	defer file.Close()

	isAdmin := sec.UserRole(claims.Role) == sec.RoleAdmin
	project, err := handler.service.UploadCover(
		request.Context(),
		requestutil.ID(request, "id"),
		claims.UserID,
		isAdmin,
		file,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, project)
}
