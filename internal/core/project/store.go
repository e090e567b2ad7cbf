package project

import (
	"context"

	"github.com/classraise/classraise/pkg/pagination"
)

type Repository interface {
	Create(context context.Context, project *Project) error
	FindByID(context context.Context, id string) (*Project, error)
	FindBySlug(context context.Context, slug string) (*Project, error)
	List(context context.Context, filter ListFilter, page pagination.Params) ([]*Project, int, error)
	Update(context context.Context, project *Project) error
	UpdateCoverKey(context context.Context, id, coverKey string) error
}
