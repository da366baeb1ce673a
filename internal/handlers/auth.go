// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/identity-service/internal/auth"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/services/account"
	"github.com/labstack/echo/v4"
)

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a pending identity and mails it a signup code.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	identity, err := h.accounts.Register(c.Request().Context(), account.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"identity_id": identity.ID,
		"message":     "check your email for the verification code",
	})
}

// VerifySignupRequest is the request body for POST /auth/verify.
type VerifySignupRequest struct {
	IdentityID string `json:"identity_id"`
	Code       string `json:"code"`
}

// VerifySignup redeems a signup code and returns a fresh session.
func (h *Handlers) VerifySignup(c echo.Context) error {
	var req VerifySignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IdentityID == "" || req.Code == "" {
		return badRequest(c, "identity_id and code are required")
	}

	identity, sess, err := h.accounts.VerifySignup(c.Request().Context(), req.IdentityID, req.Code)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token":    sess.Token,
		"identity": identity,
	})
}

// ResendCodeRequest is the request body for POST /auth/resend.
type ResendCodeRequest struct {
	IdentityID string `json:"identity_id"`
	Purpose    string `json:"purpose"`
}

// ResendCode reissues a code, gated by the per-pair cooldown.
func (h *Handlers) ResendCode(c echo.Context) error {
	var req ResendCodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IdentityID == "" {
		return badRequest(c, "identity_id is required")
	}

	purpose := models.OTPPurpose(req.Purpose)
	if req.Purpose == "" {
		purpose = models.PurposeSignup
	}

	if err := h.accounts.ResendCode(c.Request().Context(), req.IdentityID, purpose); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "verification code sent",
	})
}

// ForgotPasswordRequest is the request body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a password reset code. The 404 for unknown emails is
// deliberate here; deployments that prefer not to disclose account existence
// front this response at their own boundary.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "email is required")
	}

	identity, err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"identity_id": identity.ID,
		"message":     "password reset code sent",
	})
}

// ResetPasswordRequest is the request body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	IdentityID  string `json:"identity_id"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ResetPassword redeems a reset code and replaces the credential.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IdentityID == "" || req.Code == "" || req.NewPassword == "" {
		return badRequest(c, "identity_id, code and new_password are required")
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), req.IdentityID, req.Code, req.NewPassword); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "password reset successful",
	})
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an identity and returns a bearer token. An unverified
// account answers 403 with its identity id so the client can go straight to
// code entry.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	identity, sess, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, account.ErrNotVerified) {
		return c.JSON(http.StatusForbidden, map[string]string{
			"error":       "account not verified",
			"code":        "not_verified",
			"identity_id": identity.ID,
		})
	}
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token":    sess.Token,
		"identity": identity,
	})
}

// Logout invalidates the session behind the request's bearer token.
// Logging out twice is fine.
func (h *Handlers) Logout(c echo.Context) error {
	token := auth.GetToken(c.Request().Context())
	if err := h.sessions.Logout(c.Request().Context(), token); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity behind the request's session. The client session
// restore path calls this on startup.
func (h *Handlers) Me(c echo.Context) error {
	identity := auth.GetIdentity(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{"identity": identity})
}
