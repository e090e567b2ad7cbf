package category

import (
	"context"
	"log/slog"

	"github.com/classraise/classraise/pkg/slug"
	"github.com/classraise/classraise/pkg/uuidv7"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListCategories(context context.Context) ([]*Category, error) {
	return service.repo.ListCategories(context)
}

func (service *Service) GetCategory(context context.Context, id string) (*Category, error) {
	return service.repo.GetCategoryByID(context, id)
}

func (service *Service) GetCategoryBySlug(context context.Context, categorySlug string) (*Category, error) {
	return service.repo.GetCategoryBySlug(context, categorySlug)
}

func (service *Service) CreateCategory(context context.Context, name string, sortOrder int) (*Category, error) {
	category := &Category{
		ID:        uuidv7.New(),
		Name:      name,
		Slug:      slug.From(name),
		SortOrder: sortOrder,
	}

	if err := service.repo.CreateCategory(context, category); err != nil {
		return nil, err
	}

	service.logger.Info("category_created", slog.String("category_id", category.ID), slog.String("slug", category.Slug))
	return category, nil
}
