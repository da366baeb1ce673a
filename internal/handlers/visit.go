// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RecordVisitRequest is the request body for POST /visits.
type RecordVisitRequest struct {
	Marker string `json:"marker"`
}

// RecordVisit counts the browser session behind the marker at most once.
func (h *Handlers) RecordVisit(c echo.Context) error {
	var req RecordVisitRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	counted, total, err := h.visits.Record(c.Request().Context(), req.Marker)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"counted":      counted,
		"total_visits": total,
	})
}

// VisitTotal returns the aggregate visit count for the statistics display.
func (h *Handlers) VisitTotal(c echo.Context) error {
	total, err := h.visits.Total(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"total_visits": total})
}
