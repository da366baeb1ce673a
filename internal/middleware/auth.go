// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains the echo middleware of the identity service.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/identity-service/internal/auth"
	"codeberg.org/oliverandrich/identity-service/internal/services/session"
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/identity-service/internal/models"
)

// IdentityLoader loads the full identity behind a validated session.
type IdentityLoader interface {
	GetIdentityByID(ctx context.Context, id string) (*models.Identity, error)
}

// RequireSession gates protected routes. It validates the bearer token with
// the session manager and loads the owning identity into the request context.
// A rejected token answers 401; per contract the client must then discard the
// token, never retry it unmodified.
func RequireSession(sessions *session.Manager, loader IdentityLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c.Request())
			if token == "" {
				return unauthorized(c)
			}

			identityID, err := sessions.Validate(c.Request().Context(), token)
			if err != nil {
				return unauthorized(c)
			}

			identity, err := loader.GetIdentityByID(c.Request().Context(), identityID)
			if err != nil {
				return unauthorized(c)
			}

			ctx := auth.SetIdentity(c.Request().Context(), identity)
			ctx = auth.SetToken(ctx, token)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "invalid or expired session token",
		"code":  "unauthorized",
	})
}
