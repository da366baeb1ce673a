// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session manages bearer-token sessions. The manager is the sole
// authority on token validity; clients hold the token opaquely and discard it
// whenever they are told to.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
)

// ErrUnauthorized is returned for tokens that are unknown, malformed or
// expired. Callers must discard the client-held token on this error, not
// retry it.
var ErrUnauthorized = errors.New("invalid or expired session token")

// TokenBytes is the entropy of a bearer token; the plaintext token is its hex
// encoding, so always 2*TokenBytes characters.
const TokenBytes = 32

// Session is an issued bearer session handed to the boundary. Token carries
// the plaintext exactly once; only its SHA-256 hash is stored.
type Session struct {
	Token      string
	IdentityID string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Manager issues, validates and invalidates sessions.
type Manager struct {
	repo *repository.Repository
	ttl  time.Duration
}

// NewManager creates a new session manager.
func NewManager(repo *repository.Repository, ttl time.Duration) *Manager {
	return &Manager{repo: repo, ttl: ttl}
}

// Issue creates a session for the identity and returns the plaintext token.
// The token is never logged and never retrievable again.
func (m *Manager) Issue(ctx context.Context, identityID string) (*Session, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := time.Now().UTC()
	record := &models.Session{
		IdentityID: identityID,
		TokenHash:  HashToken(token),
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.repo.CreateSession(ctx, record); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &Session{
		Token:      token,
		IdentityID: identityID,
		IssuedAt:   record.IssuedAt,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}

// Validate resolves a bearer token to the owning identity id. Expired
// sessions are removed on sight.
func (m *Manager) Validate(ctx context.Context, token string) (string, error) {
	if len(token) != 2*TokenBytes {
		return "", ErrUnauthorized
	}

	record, err := m.repo.GetSessionByTokenHash(ctx, HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}

	if time.Now().UTC().After(record.ExpiresAt) {
		_ = m.repo.DeleteSessionByTokenHash(ctx, record.TokenHash)
		return "", ErrUnauthorized
	}

	return record.IdentityID, nil
}

// Logout invalidates the session belonging to the token. Logging out twice is
// not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.repo.DeleteSessionByTokenHash(ctx, HashToken(token))
}

// RevokeAll invalidates every session of an identity.
func (m *Manager) RevokeAll(ctx context.Context, identityID string) error {
	return m.repo.DeleteSessionsByIdentity(ctx, identityID)
}

// PurgeExpired removes sessions past their expiry. Used by the background
// janitor.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
}

// HashToken computes the SHA-256 hash of a token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
