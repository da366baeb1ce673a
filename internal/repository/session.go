// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

// CreateSession stores a new session record.
func (r *Repository) CreateSession(ctx context.Context, session *models.Session) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (identity_id, token_hash, issued_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.IdentityID, session.TokenHash, session.IssuedAt, session.ExpiresAt)
	if err != nil {
		return err
	}
	session.ID, err = res.LastInsertId()
	return err
}

// GetSessionByTokenHash retrieves a session by the hash of its bearer token.
func (r *Repository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &session, nil
}

// DeleteSessionByTokenHash invalidates a session. Deleting a session that does
// not exist is not an error, which makes logout idempotent.
func (r *Repository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

// DeleteSessionsByIdentity invalidates every session of an identity.
func (r *Repository) DeleteSessionsByIdentity(ctx context.Context, identityID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE identity_id = ?`, identityID)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry.
func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
