package project

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classraise/classraise/internal/core/category"
	"github.com/classraise/classraise/internal/platform/database/schema"
	"github.com/classraise/classraise/internal/platform/dberr"
	"github.com/classraise/classraise/pkg/pagination"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// projectSelect joins the category reference and aggregates raised cents from
// donations in a lateral-free way. Soft-deleted projects are filtered out.
const projectSelect = `
	SELECT p.id, p.teacherid, p.categoryid, p.title, p.slug, p.description,
	       p.goalcents, p.coverkey, p.status, p.createdat, p.updatedat,
	       c.id, c.name, c.slug, c.sortorder,
	       COALESCE(d.raised, 0)
	FROM core.project p
	JOIN core.category c ON p.categoryid = c.id
	LEFT JOIN (
		SELECT projectid, SUM(amountcents) AS raised
		FROM donors.donation
		GROUP BY projectid
	) d ON d.projectid = p.id`

func (repository *PostgresRepository) scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	p := &Project{}
	c := &categoryRow{}

	err := row.Scan(
		&p.ID, &p.TeacherID, &p.CategoryID, &p.Title, &p.Slug, &p.Description,
		&p.GoalCents, &p.CoverKey, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.Name, &c.Slug, &c.SortOrder,
		&p.RaisedCents,
	)
	if err != nil {
		return nil, err
	}

	p.Category = c.toCategory()
	return p, nil
}

func (repository *PostgresRepository) Create(context context.Context, project *Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		schema.Project.Table,
		schema.Project.ID, schema.Project.TeacherID, schema.Project.CategoryID,
		schema.Project.Title, schema.Project.Slug, schema.Project.Description,
		schema.Project.GoalCents, schema.Project.CoverKey, schema.Project.Status,
		schema.Project.CreatedAt, schema.Project.UpdatedAt)

	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		project.ID, project.TeacherID, project.CategoryID,
		project.Title, project.Slug, project.Description,
		project.GoalCents, project.CoverKey, project.Status,
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_project")
	}

	return nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Project, error) {
	query := projectSelect + ` WHERE p.id = $1 AND p.deletedat IS NULL`

	project, err := repository.scanProject(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_project_by_id")
	}

	return project, nil
}

func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Project, error) {
	query := projectSelect + ` WHERE p.slug = $1 AND p.deletedat IS NULL`

	project, err := repository.scanProject(repository.db.QueryRow(context, query, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "find_project_by_slug")
	}

	return project, nil
}

func (repository *PostgresRepository) List(context context.Context, filter ListFilter, page pagination.Params) ([]*Project, int, error) {
	where := ` WHERE p.deletedat IS NULL`
	args := make([]any, 0, 5)

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND p.categoryid = $%d", len(args))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		where += fmt.Sprintf(" AND p.teacherid = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}

	countQuery := `SELECT COUNT(*) FROM core.project p` + where
	total := 0
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_projects")
	}

	args = append(args, page.Limit, page.Offset())
	listQuery := projectSelect + where +
		fmt.Sprintf(" ORDER BY p.createdat DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := repository.db.Query(context, listQuery, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_projects")
	}
	defer rows.Close()

	projects := make([]*Project, 0, page.Limit)
	for rows.Next() {
		project, err := repository.scanProject(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_project")
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "read_projects")
	}

	return projects, total, nil
}

func (repository *PostgresRepository) Update(context context.Context, project *Project) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7
		WHERE %s = $1 AND %s IS NULL`,
		schema.Project.Table,
		schema.Project.CategoryID, schema.Project.Title, schema.Project.Description,
		schema.Project.GoalCents, schema.Project.Status, schema.Project.UpdatedAt,
		schema.Project.ID, schema.Project.DeletedAt)

	project.UpdatedAt = time.Now()
	tag, err := repository.db.Exec(context, query,
		project.ID, project.CategoryID, project.Title, project.Description,
		project.GoalCents, project.Status, project.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "update_project")
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

func (repository *PostgresRepository) UpdateCoverKey(context context.Context, id, coverKey string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL`,
		schema.Project.Table,
		schema.Project.CoverKey, schema.Project.UpdatedAt,
		schema.Project.ID, schema.Project.DeletedAt)

	tag, err := repository.db.Exec(context, query, id, coverKey, time.Now())
	if err != nil {
		return dberr.Wrap(err, "update_project_cover")
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// categoryRow is a scan target for the joined category columns.
type categoryRow struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
}

func (row *categoryRow) toCategory() *category.Category {
	return &category.Category{
		ID:        row.ID,
		Name:      row.Name,
		Slug:      row.Slug,
		SortOrder: row.SortOrder,
	}
}
