// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// IdentityStatus is the verification state of an identity.
type IdentityStatus string

const (
	// StatusPendingVerification marks an identity that registered but has not
	// confirmed its email yet.
	StatusPendingVerification IdentityStatus = "pending_verification"
	// StatusActive marks a verified identity.
	StatusActive IdentityStatus = "active"
)

// Identity is an account known to the verification core. The status column is
// only ever written by the account service; password reset eligibility is not
// a stored state (an active identity is reset-eligible while an unconsumed
// reset code exists for it).
type Identity struct { //nolint:govet // fieldalignment: readability over optimization
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FirstName    string         `db:"first_name" json:"first_name"`
	LastName     string         `db:"last_name" json:"last_name"`
	Status       IdentityStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the identity finished verification.
func (i *Identity) IsActive() bool {
	return i.Status == StatusActive
}
