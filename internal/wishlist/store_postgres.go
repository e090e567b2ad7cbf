// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package wishlist

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

func (repository *PostgresRepository) Find(context context.Context, donorID, projectID string) (*Entry, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s = $2`,
		schema.WishlistEntry.ID, schema.WishlistEntry.DonorID,
		schema.WishlistEntry.ProjectID, schema.WishlistEntry.CreatedAt,
		schema.WishlistEntry.Table,
		schema.WishlistEntry.DonorID, schema.WishlistEntry.ProjectID)

	entry := &Entry{}
	err := repository.db.QueryRow(context, query, donorID, projectID).Scan(
		&entry.ID, &entry.DonorID, &entry.ProjectID, &entry.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_wishlist_entry")
	}

	return entry, nil
}

func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)`,
		schema.WishlistEntry.Table,
		schema.WishlistEntry.ID, schema.WishlistEntry.DonorID,
		schema.WishlistEntry.ProjectID, schema.WishlistEntry.CreatedAt)

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(context, query,
		entry.ID, entry.DonorID, entry.ProjectID, entry.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_wishlist_entry")
	}

	return nil
}

// Toggle calls donors.toggle_wishlist_entry, which flips membership
// atomically and enforces row ownership inside the database.
func (repository *PostgresRepository) Toggle(context context.Context, donorID, projectID string) (bool, error) {
	const query = `SELECT donors.toggle_wishlist_entry($1, $2)`

	added := false
	if err := repository.db.QueryRow(context, query, donorID, projectID).Scan(&added); err != nil {
		return false, dberr.Wrap(err, "toggle_wishlist_entry")
	}

	return added, nil
}

// DeleteEntry calls donors.delete_wishlist_entry, the ownership-checked
// delete-by-id procedure.
func (repository *PostgresRepository) DeleteEntry(context context.Context, entryID string) (bool, error) {
	const query = `SELECT donors.delete_wishlist_entry($1)`

	deleted := false
	if err := repository.db.QueryRow(context, query, entryID).Scan(&deleted); err != nil {
		return false, dberr.Wrap(err, "delete_wishlist_entry_proc")
	}

	return deleted, nil
}

func (repository *PostgresRepository) DeleteByID(context context.Context, entryID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.WishlistEntry.Table, schema.WishlistEntry.ID)

	tag, err := repository.db.Exec(context, query, entryID)
	if err != nil {
		return dberr.Wrap(err, "delete_wishlist_entry_by_id")
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

func (repository *PostgresRepository) DeleteByPair(context context.Context, donorID, projectID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.WishlistEntry.Table,
		schema.WishlistEntry.DonorID, schema.WishlistEntry.ProjectID)

	tag, err := repository.db.Exec(context, query, donorID, projectID)
	if err != nil {
		return dberr.Wrap(err, "delete_wishlist_entry_by_pair")
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

func (repository *PostgresRepository) ListByDonor(context context.Context, donorID string) ([]*Entry, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		schema.WishlistEntry.ID, schema.WishlistEntry.DonorID,
		schema.WishlistEntry.ProjectID, schema.WishlistEntry.CreatedAt,
		schema.WishlistEntry.Table,
		schema.WishlistEntry.DonorID, schema.WishlistEntry.CreatedAt)

	rows, err := repository.db.Query(context, query, donorID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_wishlist_entries")
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(&entry.ID, &entry.DonorID, &entry.ProjectID, &entry.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_wishlist_entry")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "read_wishlist_entries")
	}

	return entries, nil
}
