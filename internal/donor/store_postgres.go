// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donor

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

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.DonorProfile.ID, schema.DonorProfile.UserID, schema.DonorProfile.IsAnonymous,
		schema.DonorProfile.CreatedAt, schema.DonorProfile.UpdatedAt,
		schema.DonorProfile.Table, schema.DonorProfile.ID)

	profile := &Profile{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&profile.ID, &profile.UserID, &profile.IsAnonymous,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_donor_profile_by_id")
	}

	return profile, nil
}

func (repository *PostgresRepository) FindByUserID(context context.Context, userID string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.DonorProfile.ID, schema.DonorProfile.UserID, schema.DonorProfile.IsAnonymous,
		schema.DonorProfile.CreatedAt, schema.DonorProfile.UpdatedAt,
		schema.DonorProfile.Table, schema.DonorProfile.UserID)

	profile := &Profile{}
	err := repository.db.QueryRow(context, query, userID).Scan(
		&profile.ID, &profile.UserID, &profile.IsAnonymous,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_donor_profile_by_user_id")
	}

	return profile, nil
}

// Provision calls the donors.get_or_create_profile procedure, which resolves
// the lookup-or-create race inside the database and runs with the privileges
// needed to insert on behalf of the caller.
func (repository *PostgresRepository) Provision(context context.Context, userID string, isAnonymous bool) (*Profile, error) {
	const query = `SELECT id, userid, isanonymous, createdat, updatedat FROM donors.get_or_create_profile($1, $2)`

	profile := &Profile{}
	err := repository.db.QueryRow(context, query, userID, isAnonymous).Scan(
		&profile.ID, &profile.UserID, &profile.IsAnonymous,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "provision_donor_profile")
	}

	return profile, nil
}

func (repository *PostgresRepository) Create(context context.Context, profile *Profile) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		schema.DonorProfile.Table,
		schema.DonorProfile.ID, schema.DonorProfile.UserID, schema.DonorProfile.IsAnonymous,
		schema.DonorProfile.CreatedAt, schema.DonorProfile.UpdatedAt)

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		profile.ID, profile.UserID, profile.IsAnonymous,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create_donor_profile")
	}

	return nil
}

func (repository *PostgresRepository) UpdateAnonymity(context context.Context, id string, isAnonymous bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.DonorProfile.Table,
		schema.DonorProfile.IsAnonymous, schema.DonorProfile.UpdatedAt,
		schema.DonorProfile.ID)

	tag, err := repository.db.Exec(context, query, id, isAnonymous, time.Now())
	if err != nil {
		return dberr.Wrap(err, "update_donor_anonymity")
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}
