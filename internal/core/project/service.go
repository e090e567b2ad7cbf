package project

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/classraise/classraise/internal/platform/apperr"
	"github.com/classraise/classraise/internal/platform/dberr"
	"github.com/classraise/classraise/internal/platform/objstore"
	"github.com/classraise/classraise/pkg/pagination"
	"github.com/classraise/classraise/pkg/slug"
	"github.com/classraise/classraise/pkg/uuidv7"
)

type Service struct {
	repo   Repository
	images *objstore.Store
	logger *slog.Logger
}

func NewService(repo Repository, images *objstore.Store, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// CreateInput holds everything a teacher supplies for a new campaign.
type CreateInput struct {
	TeacherID   string
	CategoryID  string
	Title       string
	Description string
	GoalCents   int64
}

// Create registers a new draft campaign. Slugs derive from the title; on a
// collision the time-sortable id suffix keeps them unique without a retry loop.
func (service *Service) Create(context context.Context, input CreateInput) (*Project, error) {
	project := &Project{
		ID:          uuidv7.New(),
		TeacherID:   input.TeacherID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Slug:        slug.From(input.Title),
		Description: input.Description,
		GoalCents:   input.GoalCents,
		Status:      StatusDraft,
	}

	err := service.repo.Create(context, project)
	if dberr.IsUniqueViolation(err) {
		project.Slug = fmt.Sprintf("%s-%s", project.Slug, project.ID[len(project.ID)-8:])
		err = service.repo.Create(context, project)
	}
	if err != nil {
		return nil, err
	}

	service.logger.Info("project_created",
		slog.String("project_id", project.ID),
		slog.String("teacher_id", project.TeacherID))

	return service.decorate(project), nil
}

func (service *Service) Get(context context.Context, id string) (*Project, error) {
	project, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	return service.decorate(project), nil
}

func (service *Service) GetBySlug(context context.Context, projectSlug string) (*Project, error) {
	project, err := service.repo.FindBySlug(context, projectSlug)
	if err != nil {
		return nil, err
	}
	return service.decorate(project), nil
}

func (service *Service) List(context context.Context, filter ListFilter, page pagination.Params) ([]*Project, int, error) {
	projects, total, err := service.repo.List(context, filter, page)
	if err != nil {
		return nil, 0, err
	}

	for _, project := range projects {
		service.decorate(project)
	}

	return projects, total, nil
}

// UpdateInput holds the mutable campaign fields. Nil pointers leave the
// stored value unchanged.
type UpdateInput struct {
	CategoryID  *string
	Title       *string
	Description *string
	GoalCents   *int64
	Status      *string
}

// validStatuses guards the lifecycle field against arbitrary strings.
var validStatuses = map[string]bool{
	StatusDraft:  true,
	StatusActive: true,
	StatusFunded: true,
	StatusClosed: true,
}

// Update applies partial changes after verifying the caller owns the campaign
// (admins bypass the ownership check).
func (service *Service) Update(context context.Context, id, callerID string, isAdmin bool, input UpdateInput) (*Project, error) {
	project, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if project.TeacherID != callerID && !isAdmin {
		return nil, apperr.Forbidden("Only the project owner can modify it")
	}

	if input.CategoryID != nil {
		project.CategoryID = *input.CategoryID
	}
	if input.Title != nil {
		project.Title = *input.Title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.GoalCents != nil {
		project.GoalCents = *input.GoalCents
	}
	if input.Status != nil {
		if !validStatuses[*input.Status] {
			return nil, apperr.Unprocessable("Unknown project status")
		}
		project.Status = *input.Status
	}

	if err := service.repo.Update(context, project); err != nil {
		return nil, err
	}

	return service.decorate(project), nil
}

// coverExtensions maps accepted upload content types to stored file extensions.
var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadCover stores a campaign cover image and links it to the project.
func (service *Service) UploadCover(context context.Context, id, callerID string, isAdmin bool, body io.Reader, contentType string) (*Project, error) {
	extension, ok := coverExtensions[contentType]
	if !ok {
		return nil, apperr.Unprocessable("Unsupported image type; use JPEG, PNG or WebP")
	}

	project, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if project.TeacherID != callerID && !isAdmin {
		return nil, apperr.Forbidden("Only the project owner can modify it")
	}

	key := fmt.Sprintf("projects/%s/cover%s", id, extension)
	if err := service.images.Upload(context, key, body, contentType); err != nil {
		return nil, err
	}

	if project.CoverKey != "" && project.CoverKey != key {
		_ = service.images.Delete(context, project.CoverKey)
	}

	if err := service.repo.UpdateCoverKey(context, id, key); err != nil {
		return nil, err
	}

	project.CoverKey = key
	return service.decorate(project), nil
}

// decorate resolves transport-only fields (public cover URL).
func (service *Service) decorate(project *Project) *Project {
	project.CoverURL = service.images.PublicURL(project.CoverKey)
	return project
}
