package category

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classraise/classraise/internal/platform/database/schema"
	"github.com/classraise/classraise/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListCategories(context context.Context) ([]*Category, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s ORDER BY %s ASC, %s ASC`,
		schema.Category.ID, schema.Category.Name, schema.Category.Slug, schema.Category.SortOrder,
		schema.Category.Table, schema.Category.SortOrder, schema.Category.Name)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_categories")
	}
	defer rows.Close()

	categories := make([]*Category, 0)
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder); err != nil {
			return nil, dberr.Wrap(err, "scan_category")
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "read_categories")
	}

	return categories, nil
}

func (repository *PostgresRepository) GetCategoryByID(context context.Context, id string) (*Category, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.Category.ID, schema.Category.Name, schema.Category.Slug, schema.Category.SortOrder,
		schema.Category.Table, schema.Category.ID)

	c := &Category{}
	err := repository.db.QueryRow(context, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder)
	if err != nil {
		return nil, dberr.Wrap(err, "get_category_by_id")
	}

	return c, nil
}

func (repository *PostgresRepository) GetCategoryBySlug(context context.Context, slug string) (*Category, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.Category.ID, schema.Category.Name, schema.Category.Slug, schema.Category.SortOrder,
		schema.Category.Table, schema.Category.Slug)

	c := &Category{}
	err := repository.db.QueryRow(context, query, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder)
	if err != nil {
		return nil, dberr.Wrap(err, "get_category_by_slug")
	}

	return c, nil
}

func (repository *PostgresRepository) CreateCategory(context context.Context, category *Category) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		schema.Category.Table,
		schema.Category.ID, schema.Category.Name, schema.Category.Slug,
		schema.Category.SortOrder, schema.Category.CreatedAt)

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(context, query,
		category.ID, category.Name, category.Slug, category.SortOrder, category.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_category")
	}

	return nil
}
