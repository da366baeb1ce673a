// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(identityID, tokenHash string) *models.Session {
	now := time.Now()
	return &models.Session{
		IdentityID: identityID,
		TokenHash:  tokenHash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}
}

func TestCreateSession(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	sess := newSession(identity.ID, "hash-1")
	require.NoError(t, repo.CreateSession(ctx, sess))

	retrieved, err := repo.GetSessionByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, retrieved.IdentityID)
}

func TestGetSessionByTokenHash_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetSessionByTokenHash(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteSessionByTokenHash_Idempotent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)
	require.NoError(t, repo.CreateSession(ctx, newSession(identity.ID, "hash-1")))

	require.NoError(t, repo.DeleteSessionByTokenHash(ctx, "hash-1"))
	require.NoError(t, repo.DeleteSessionByTokenHash(ctx, "hash-1"))

	_, err := repo.GetSessionByTokenHash(ctx, "hash-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteSessionsByIdentity(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	alice := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)
	bob := testutil.NewTestIdentity(t, repo, "bob@example.com", models.StatusActive)
	require.NoError(t, repo.CreateSession(ctx, newSession(alice.ID, "hash-a1")))
	require.NoError(t, repo.CreateSession(ctx, newSession(alice.ID, "hash-a2")))
	require.NoError(t, repo.CreateSession(ctx, newSession(bob.ID, "hash-b1")))

	require.NoError(t, repo.DeleteSessionsByIdentity(ctx, alice.ID))

	_, err := repo.GetSessionByTokenHash(ctx, "hash-a1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetSessionByTokenHash(ctx, "hash-a2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetSessionByTokenHash(ctx, "hash-b1")
	assert.NoError(t, err)
}

func TestDeleteExpiredSessions(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	expired := newSession(identity.ID, "hash-old")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.CreateSession(ctx, expired))
	require.NoError(t, repo.CreateSession(ctx, newSession(identity.ID, "hash-new")))

	n, err := repo.DeleteExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.GetSessionByTokenHash(ctx, "hash-new")
	assert.NoError(t, err)
}
