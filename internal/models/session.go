// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Session is a stored bearer session. Only the SHA-256 hash of the token is
// persisted; the plaintext token exists once, in the issue response.
type Session struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64     `db:"id" json:"id"`
	IdentityID string    `db:"identity_id" json:"identity_id"`
	TokenHash  string    `db:"token_hash" json:"-"`
	IssuedAt   time.Time `db:"issued_at" json:"issued_at"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
}
