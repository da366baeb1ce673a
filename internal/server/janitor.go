// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/services/session"
)

const janitorInterval = 5 * time.Minute

// runJanitor periodically removes expired codes and sessions and deletes
// registrations that were never verified within the grace period.
func runJanitor(ctx context.Context, repo *repository.Repository, sessions *session.Manager, pendingGrace time.Duration) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, repo, sessions, pendingGrace)
		}
	}
}

func sweep(ctx context.Context, repo *repository.Repository, sessions *session.Manager, pendingGrace time.Duration) {
	now := time.Now()

	if n, err := repo.DeleteExpiredOTPs(ctx, now); err != nil {
		slog.Error("janitor failed to delete expired codes", "error", err)
	} else if n > 0 {
		slog.Debug("janitor deleted expired codes", "count", n)
	}

	if n, err := sessions.PurgeExpired(ctx); err != nil {
		slog.Error("janitor failed to delete expired sessions", "error", err)
	} else if n > 0 {
		slog.Debug("janitor deleted expired sessions", "count", n)
	}

	if n, err := repo.DeleteStalePendingIdentities(ctx, now.Add(-pendingGrace)); err != nil {
		slog.Error("janitor failed to delete stale registrations", "error", err)
	} else if n > 0 {
		slog.Debug("janitor deleted stale registrations", "count", n)
	}
}
