// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// It classifies pgx errors by SQLSTATE so that callers can react to unique
// violations (idempotent inserts) and privilege errors (stale identity
// linkage) without importing driver types.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/classraise/classraise/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. SQLSTATE classification
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			conflict := apperr.Conflict("Resource already exists")
			conflict.Cause = err
			return conflict
		case pgerrcode.InsufficientPrivilege:
			forbidden := apperr.Forbidden("Operation not permitted")
			forbidden.Cause = err
			return forbidden
		case pgerrcode.ForeignKeyViolation:
			invalid := apperr.Unprocessable("Referenced resource does not exist")
			invalid.Cause = err
			return invalid
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || apperr.IsCode(err, "NOT_FOUND")
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), before or after wrapping.
func IsUniqueViolation(err error) bool {
	if apperr.IsCode(err, "CONFLICT") {
		return true
	}
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation
}

// IsPermissionDenied reports whether err is a Postgres privilege or
// row-level-security violation (SQLSTATE 42501), before or after wrapping.
func IsPermissionDenied(err error) bool {
	if apperr.IsCode(err, "FORBIDDEN") {
		return true
	}
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.InsufficientPrivilege
}
