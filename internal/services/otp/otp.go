// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp issues and redeems short-lived one-time passcodes.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/config"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

var (
	// ErrNotFound means no code was ever issued for the pair, or the only
	// issued codes were cleaned up.
	ErrNotFound = errors.New("no verification code found")
	// ErrExpired means the current code is past its validity window.
	ErrExpired = errors.New("verification code expired")
	// ErrAlreadyConsumed means the current code was already redeemed.
	ErrAlreadyConsumed = errors.New("verification code already used")
	// ErrMismatch means the supplied code does not equal the stored one.
	ErrMismatch = errors.New("verification code does not match")
	// ErrTooSoon means the resend cooldown has not elapsed yet.
	ErrTooSoon = errors.New("verification code requested too soon")
	// ErrInvalidPurpose means the purpose is not one of the known flows.
	ErrInvalidPurpose = errors.New("invalid code purpose")
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

// Service generates, stores and redeems codes, and governs reissue timing.
type Service struct {
	repo     *repository.Repository
	ttl      time.Duration
	cooldown time.Duration
}

// NewService creates a new OTP service.
func NewService(repo *repository.Repository, cfg *config.OTPConfig) *Service {
	return &Service{
		repo:     repo,
		ttl:      cfg.TTL,
		cooldown: cfg.ResendCooldown,
	}
}

// GenerateCode returns a zero-padded numeric code drawn from crypto/rand.
// The code is the sole secret protecting the flow, so a predictable source
// is not an option.
func GenerateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// Issue generates a fresh code for the pair and stores it, superseding any
// unconsumed predecessor. No cooldown applies; use Reissue for resend paths.
func (s *Service) Issue(ctx context.Context, identityID string, purpose models.OTPPurpose) (string, error) {
	return s.issue(ctx, identityID, purpose, 0)
}

// Reissue is Issue gated by the resend cooldown. Two near-simultaneous
// reissues race inside a single database transaction, so exactly one wins
// and the other returns ErrTooSoon.
func (s *Service) Reissue(ctx context.Context, identityID string, purpose models.OTPPurpose) (string, error) {
	return s.issue(ctx, identityID, purpose, s.cooldown)
}

func (s *Service) issue(ctx context.Context, identityID string, purpose models.OTPPurpose, minInterval time.Duration) (string, error) {
	if !purpose.Valid() {
		return "", ErrInvalidPurpose
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := &models.OTPCode{
		IdentityID: identityID,
		Purpose:    purpose,
		Code:       code,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.repo.IssueOTP(ctx, record, minInterval); err != nil {
		if errors.Is(err, repository.ErrIssuedTooRecently) {
			return "", ErrTooSoon
		}
		return "", fmt.Errorf("storing code: %w", err)
	}

	return code, nil
}

// CanResend reports whether the cooldown for the pair has elapsed. The check
// is advisory; Reissue re-validates atomically.
func (s *Service) CanResend(ctx context.Context, identityID string, purpose models.OTPPurpose) (bool, error) {
	latest, err := s.repo.LatestOTP(ctx, identityID, purpose)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(latest.IssuedAt) >= s.cooldown, nil
}

// Consume redeems the supplied code against the most recently issued record
// for the pair. Only the newest record is ever eligible: issuing a new code
// makes older ones unmatchable even before they expire. Consumption is
// exactly-once; a repeat call with the same correct code reports
// ErrAlreadyConsumed.
func (s *Service) Consume(ctx context.Context, identityID string, purpose models.OTPPurpose, code string) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}

	latest, err := s.repo.LatestOTP(ctx, identityID, purpose)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading code: %w", err)
	}

	switch {
	case latest.IsConsumed():
		return ErrAlreadyConsumed
	case latest.ExpiredAt(time.Now().UTC()):
		return ErrExpired
	case latest.Code != code:
		return ErrMismatch
	}

	consumed, err := s.repo.ConsumeOTP(ctx, latest.ID)
	if err != nil {
		return fmt.Errorf("consuming code: %w", err)
	}
	if !consumed {
		// lost the race against a concurrent consume of the same code
		return ErrAlreadyConsumed
	}
	return nil
}
