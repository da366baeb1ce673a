// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON boundary of the identity core.
package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/services/account"
	"codeberg.org/oliverandrich/identity-service/internal/services/session"
	"codeberg.org/oliverandrich/identity-service/internal/services/visit"
	"github.com/labstack/echo/v4"
)

// Handlers bundles the boundary handlers and their dependencies.
type Handlers struct {
	repo     *repository.Repository
	accounts *account.Service
	sessions *session.Manager
	visits   *visit.Service
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, accounts *account.Service, sessions *session.Manager, visits *visit.Service) *Handlers {
	return &Handlers{
		repo:     repo,
		accounts: accounts,
		sessions: sessions,
		visits:   visits,
	}
}

// Health reports service and database health.
func (h *Handlers) Health(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"
	code := http.StatusOK

	if err := h.repo.Ping(); err != nil {
		status = "degraded"
		dbStatus = "disconnected"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]string{
		"status":   status,
		"database": dbStatus,
	})
}
