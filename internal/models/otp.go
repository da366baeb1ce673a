// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// OTPPurpose identifies the flow a one-time code belongs to. Codes issued for
// one purpose never validate against another.
type OTPPurpose string

const (
	// PurposeSignup codes confirm a fresh registration.
	PurposeSignup OTPPurpose = "signup"
	// PurposePasswordReset codes authorize a credential replacement.
	PurposePasswordReset OTPPurpose = "password_reset"
)

// Valid reports whether p is one of the two known purposes.
func (p OTPPurpose) Valid() bool {
	return p == PurposeSignup || p == PurposePasswordReset
}

// OTPCode is a stored one-time passcode. At most one unconsumed row exists per
// (identity, purpose); issuing a new code removes the prior unconsumed one in
// the same transaction.
type OTPCode struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64      `db:"id" json:"id"`
	IdentityID string     `db:"identity_id" json:"identity_id"`
	Purpose    OTPPurpose `db:"purpose" json:"purpose"`
	Code       string     `db:"code" json:"-"`
	IssuedAt   time.Time  `db:"issued_at" json:"issued_at"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	Consumed   int64      `db:"consumed" json:"consumed"`
}

// IsConsumed reports whether the code was already redeemed.
func (o *OTPCode) IsConsumed() bool {
	return o.Consumed != 0
}

// ExpiredAt reports whether the code is past its expiry at the given instant.
func (o *OTPCode) ExpiredAt(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
