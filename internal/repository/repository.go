// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository implements the persistence capability of the identity
// core on top of SQLite.
package repository

import (
	"database/sql"
	"errors"

	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ErrIssuedTooRecently is returned by IssueOTP when the previous code for the
// same (identity, purpose) pair was issued inside the cooldown interval.
var ErrIssuedTooRecently = errors.New("code issued too recently")

// Repository wraps the database handle for all storage operations.
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying handle for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Ping verifies the database connection is alive.
func (r *Repository) Ping() error {
	return r.db.Ping()
}

// wrapError converts database/sql errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
