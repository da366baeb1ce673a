// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// Identity is the context key for the authenticated identity.
type Identity struct{}

// SessionToken is the context key for the bearer token the request carried.
type SessionToken struct{}
