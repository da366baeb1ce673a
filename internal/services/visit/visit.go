// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package visit counts distinct browser sessions. A client generates one
// marker per browser session; counting it once is the only guarantee.
package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMarker is returned for empty or implausible markers.
var ErrInvalidMarker = errors.New("invalid visit marker")

const (
	minMarkerLength = 8
	maxMarkerLength = 128
)

// MarkerStore is the persistence this service needs.
type MarkerStore interface {
	RegisterVisitMarker(ctx context.Context, marker string, now time.Time) (bool, error)
	CountVisits(ctx context.Context) (int64, error)
}

// Service deduplicates visit recording per client session marker.
type Service struct {
	store MarkerStore
}

// NewService creates a new visit service.
func NewService(store MarkerStore) *Service {
	return &Service{store: store}
}

// Record counts the browser session behind the marker at most once, no matter
// how many concurrent duplicate calls arrive. Returns whether this call was
// the counting one and the aggregate total afterwards.
func (s *Service) Record(ctx context.Context, marker string) (counted bool, total int64, err error) {
	marker = strings.TrimSpace(marker)
	if len(marker) < minMarkerLength || len(marker) > maxMarkerLength {
		return false, 0, ErrInvalidMarker
	}

	counted, err = s.store.RegisterVisitMarker(ctx, marker, time.Now().UTC())
	if err != nil {
		return false, 0, fmt.Errorf("registering marker: %w", err)
	}

	total, err = s.store.CountVisits(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("counting visits: %w", err)
	}
	return counted, total, nil
}

// Total returns the number of distinct browser sessions observed so far.
func (s *Service) Total(ctx context.Context) (int64, error) {
	return s.store.CountVisits(ctx)
}
