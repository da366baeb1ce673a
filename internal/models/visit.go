// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// VisitMarker records a browser session that has already been counted. The
// marker value is client-generated and opaque; the primary key on it is what
// makes visit counting idempotent.
type VisitMarker struct {
	Marker    string    `db:"marker" json:"marker"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
