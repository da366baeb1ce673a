// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

// CreateIdentity inserts a new identity. If another identity exists for the
// same email but never finished verification, it is replaced in the same
// transaction; its codes and sessions go with it via ON DELETE CASCADE.
func (r *Repository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM identities WHERE email = ? AND status = ?`,
		identity.Email, models.StatusPendingVerification); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, first_name, last_name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID, identity.Email, identity.PasswordHash, identity.FirstName,
		identity.LastName, identity.Status, identity.CreatedAt, identity.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GetIdentityByID retrieves an identity by its ID.
func (r *Repository) GetIdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT * FROM identities WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &identity, nil
}

// GetIdentityByEmail retrieves an identity by email. The lookup is
// case-insensitive (COLLATE NOCASE on the column).
func (r *Repository) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT * FROM identities WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &identity, nil
}

// UpdateIdentityStatus sets the verification status of an identity.
func (r *Repository) UpdateIdentityStatus(ctx context.Context, id string, status models.IdentityStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE identities SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIdentityPassword replaces the credential hash of an identity.
func (r *Repository) UpdateIdentityPassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE identities SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStalePendingIdentities removes identities that registered before the
// cutoff but never verified. Used by the background janitor.
func (r *Repository) DeleteStalePendingIdentities(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM identities WHERE status = ? AND created_at < ?`,
		models.StatusPendingVerification, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
