// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/identity-service/internal/services/account"
	"codeberg.org/oliverandrich/identity-service/internal/services/otp"
	"codeberg.org/oliverandrich/identity-service/internal/services/session"
	"codeberg.org/oliverandrich/identity-service/internal/services/visit"
	"github.com/labstack/echo/v4"
)

// errorResponse is the JSON error body. The code field is the stable,
// machine-readable error kind; the error field is for humans.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorKinds = []struct { //nolint:govet // fieldalignment: readability over optimization
	err    error
	status int
	code   string
}{
	{account.ErrEmailTaken, http.StatusConflict, "conflict"},
	{account.ErrNotFound, http.StatusNotFound, "not_found"},
	{otp.ErrNotFound, http.StatusNotFound, "not_found"},
	{otp.ErrExpired, http.StatusBadRequest, "code_expired"},
	{otp.ErrAlreadyConsumed, http.StatusBadRequest, "code_already_used"},
	{otp.ErrMismatch, http.StatusBadRequest, "code_mismatch"},
	{otp.ErrTooSoon, http.StatusTooManyRequests, "too_soon"},
	{otp.ErrInvalidPurpose, http.StatusBadRequest, "invalid_purpose"},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{account.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{account.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{account.ErrAlreadyVerified, http.StatusBadRequest, "already_verified"},
	{session.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{visit.ErrInvalidMarker, http.StatusBadRequest, "invalid_marker"},
}

// serviceError maps a service error to its HTTP response. Storage faults stay
// generic: they are fatal to the request but never detailed to the client.
func serviceError(c echo.Context, err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.err) {
			return c.JSON(kind.status, errorResponse{Error: kind.err.Error(), Code: kind.code})
		}
	}

	slog.Error("request_failed", "path", c.Request().URL.Path, "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_request"})
}
