// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/identity-service/internal/ctxkeys"
	"codeberg.org/oliverandrich/identity-service/internal/models"
)

// SetIdentity stores the authenticated identity in the context.
func SetIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, ctxkeys.Identity{}, identity)
}

// GetIdentity returns the authenticated identity from the context, or nil if
// not authenticated.
func GetIdentity(ctx context.Context) *models.Identity {
	if identity, ok := ctx.Value(ctxkeys.Identity{}).(*models.Identity); ok {
		return identity
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated identity.
func IsAuthenticated(ctx context.Context) bool {
	return GetIdentity(ctx) != nil
}

// SetToken stores the request's bearer token in the context so handlers like
// logout can act on it.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxkeys.SessionToken{}, token)
}

// GetToken returns the bearer token the request carried, or "".
func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(ctxkeys.SessionToken{}).(string); ok {
		return token
	}
	return ""
}
