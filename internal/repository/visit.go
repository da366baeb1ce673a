// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"
)

// RegisterVisitMarker records a client session marker if it has not been seen
// before. The INSERT OR IGNORE against the primary key is the atomic
// check-and-set that keeps visit counting idempotent under concurrent
// duplicate calls. Returns true if the marker was newly recorded.
func (r *Repository) RegisterVisitMarker(ctx context.Context, marker string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO visit_markers (marker, created_at) VALUES (?, ?)`,
		marker, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountVisits returns the total number of distinct browser sessions observed.
func (r *Repository) CountVisits(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM visit_markers`); err != nil {
		return 0, err
	}
	return count, nil
}
