// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classraise/classraise/internal/platform/database/schema"
	"github.com/classraise/classraise/internal/platform/dberr"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of Repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) Create(context context.Context, donation *Donation) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.Donation.Table,
		schema.Donation.ID, schema.Donation.DonorID, schema.Donation.ProjectID,
		schema.Donation.AmountCents, schema.Donation.Message, schema.Donation.CreatedAt)

	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(context, query,
		donation.ID, donation.DonorID, donation.ProjectID,
		donation.AmountCents, donation.Message, donation.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_donation")
	}

	return nil
}

func (repository *PostgresRepository) ListByDonor(context context.Context, donorID string) ([]*Donation, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		schema.Donation.ID, schema.Donation.DonorID, schema.Donation.ProjectID,
		schema.Donation.AmountCents, schema.Donation.Message, schema.Donation.CreatedAt,
		schema.Donation.Table,
		schema.Donation.DonorID, schema.Donation.CreatedAt)

	rows, err := repository.db.Query(context, query, donorID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_donations")
	}
	defer rows.Close()

	donations := make([]*Donation, 0)
	for rows.Next() {
		donation := &Donation{}
		if err := rows.Scan(
			&donation.ID, &donation.DonorID, &donation.ProjectID,
			&donation.AmountCents, &donation.Message, &donation.CreatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_donation")
		}
		donations = append(donations, donation)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "read_donations")
	}

	return donations, nil
}

func (repository *PostgresRepository) TotalForProject(context context.Context, projectID string) (int64, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s WHERE %s = $1`,
		schema.Donation.AmountCents, schema.Donation.Table, schema.Donation.ProjectID)

	total := int64(0)
	if err := repository.db.QueryRow(context, query, projectID).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "total_donations_for_project")
	}

	return total, nil
}
