package category

import "context"

type Repository interface {
	ListCategories(context context.Context) ([]*Category, error)
	GetCategoryByID(context context.Context, id string) (*Category, error)
	GetCategoryBySlug(context context.Context, slug string) (*Category, error)
	CreateCategory(context context.Context, category *Category) error
}
