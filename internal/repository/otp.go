// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

// IssueOTP stores a freshly generated code. Inside a single transaction it
// enforces the issuance cooldown against the latest prior code for the
// (identity, purpose) pair and deletes any unconsumed predecessor, so at most
// one matchable code exists per pair at any time. minInterval <= 0 disables
// the cooldown check.
func (r *Repository) IssueOTP(ctx context.Context, otp *models.OTPCode, minInterval time.Duration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if minInterval > 0 {
		var last time.Time
		err := tx.GetContext(ctx, &last,
			`SELECT issued_at FROM otp_codes WHERE identity_id = ? AND purpose = ? ORDER BY id DESC LIMIT 1`,
			otp.IdentityID, otp.Purpose)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// first issuance, no cooldown applies
		case err != nil:
			return err
		case otp.IssuedAt.Sub(last) < minInterval:
			return ErrIssuedTooRecently
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE identity_id = ? AND purpose = ? AND consumed = 0`,
		otp.IdentityID, otp.Purpose); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO otp_codes (identity_id, purpose, code, issued_at, expires_at, consumed)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		otp.IdentityID, otp.Purpose, otp.Code, otp.IssuedAt, otp.ExpiresAt)
	if err != nil {
		return err
	}
	if otp.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	return tx.Commit()
}

// LatestOTP returns the most recently issued code for the pair, consumed or
// not. Older codes are never eligible for matching.
func (r *Repository) LatestOTP(ctx context.Context, identityID string, purpose models.OTPPurpose) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := r.db.GetContext(ctx, &otp,
		`SELECT * FROM otp_codes WHERE identity_id = ? AND purpose = ? ORDER BY id DESC LIMIT 1`,
		identityID, purpose)
	if err != nil {
		return nil, wrapError(err)
	}
	return &otp, nil
}

// ConsumeOTP marks a code consumed. The guarded update makes consumption
// exactly-once: the second caller sees zero affected rows.
func (r *Repository) ConsumeOTP(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET consumed = 1 WHERE id = ? AND consumed = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpiredOTPs removes codes past their expiry. Expired rows are inert
// either way; this keeps the table small.
func (r *Repository) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
