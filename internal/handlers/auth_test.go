// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/identity-service/internal/auth"
	"codeberg.org/oliverandrich/identity-service/internal/handlers"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerIdentity(t *testing.T, h *handlers.Handlers, repo *repository.Repository, email string) (identityID, code string) {
	t.Helper()
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"`+email+`","password":"correct horse battery"}`))

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	identityID = body["identity_id"].(string)
	return identityID, latestCode(t, repo, identityID, models.PurposeSignup)
}

func TestRegisterHandler(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identityID, code := registerIdentity(t, h, repo, "alice@example.com")

	assert.NotEmpty(t, identityID)
	assert.Len(t, code, 6)
}

func TestRegisterHandler_MissingFields(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"alice@example.com"}`))

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeBody(t, rec)["code"])
}

func TestRegisterHandler_Conflict(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"alice@example.com","password":"correct horse battery"}`))

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody(t, rec)["code"])
}

func TestVerifySignupHandler(t *testing.T) {
	h, repo, sessions := newTestHandlers(t)

	identityID, code := registerIdentity(t, h, repo, "alice@example.com")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/verify",
		strings.NewReader(`{"identity_id":"`+identityID+`","code":"`+code+`"}`))

	require.NoError(t, h.VerifySignup(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	token := body["token"].(string)
	assert.NotEmpty(t, token)

	identity := body["identity"].(map[string]any)
	assert.Equal(t, "active", identity["status"])
	assert.NotContains(t, identity, "password_hash")

	// The token from the response is immediately valid.
	resolved, err := sessions.Validate(c.Request().Context(), token)
	require.NoError(t, err)
	assert.Equal(t, identityID, resolved)
}

func TestVerifySignupHandler_WrongCode(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identityID, code := registerIdentity(t, h, repo, "alice@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/verify",
		strings.NewReader(`{"identity_id":"`+identityID+`","code":"`+wrong+`"}`))

	require.NoError(t, h.VerifySignup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code_mismatch", decodeBody(t, rec)["code"])
}

func TestVerifySignupHandler_CodeReuse(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identityID, code := registerIdentity(t, h, repo, "alice@example.com")

	e := echo.New()
	payload := `{"identity_id":"` + identityID + `","code":"` + code + `"}`

	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/verify", strings.NewReader(payload))
	require.NoError(t, h.VerifySignup(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/api/auth/verify", strings.NewReader(payload))
	require.NoError(t, h.VerifySignup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code_already_used", decodeBody(t, rec)["code"])
}

func TestVerifySignupHandler_UnknownIdentity(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/verify",
		strings.NewReader(`{"identity_id":"missing","code":"123456"}`))

	require.NoError(t, h.VerifySignup(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["code"])
}

func TestResendCodeHandler_TooSoon(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identityID, _ := registerIdentity(t, h, repo, "alice@example.com")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/resend",
		strings.NewReader(`{"identity_id":"`+identityID+`"}`))

	require.NoError(t, h.ResendCode(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_soon", decodeBody(t, rec)["code"])
}

func TestResendCodeHandler_InvalidPurpose(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identityID, _ := registerIdentity(t, h, repo, "alice@example.com")

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/resend",
		strings.NewReader(`{"identity_id":"`+identityID+`","purpose":"banana"}`))

	require.NoError(t, h.ResendCode(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_purpose", decodeBody(t, rec)["code"])
}

func TestForgotPasswordHandler(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/forgot-password",
		strings.NewReader(`{"email":"alice@example.com"}`))

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, identity.ID, decodeBody(t, rec)["identity_id"])
}

func TestForgotPasswordHandler_UnknownEmail(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/forgot-password",
		strings.NewReader(`{"email":"nobody@example.com"}`))

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetPasswordHandler(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/forgot-password",
		strings.NewReader(`{"email":"alice@example.com"}`))
	require.NoError(t, h.ForgotPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	code := latestCode(t, repo, identity.ID, models.PurposePasswordReset)
	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/api/auth/reset-password",
		strings.NewReader(`{"identity_id":"`+identity.ID+`","code":"`+code+`","new_password":"a brand new password"}`))
	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// New credential works, old one is gone.
	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"a brand new password"}`))
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"correct horse battery"}`))
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"correct horse battery"}`))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"wrong password"}`))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["code"])
}

func TestLoginHandler_NotVerified(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusPendingVerification)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"correct horse battery"}`))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "not_verified", body["code"])
	assert.Equal(t, identity.ID, body["identity_id"])
}

func TestLogoutHandler(t *testing.T) {
	h, repo, sessions := newTestHandlers(t)

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)
	sess, err := sessions.Issue(t.Context(), identity.ID)
	require.NoError(t, err)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/auth/logout", nil)
	ctx := auth.SetToken(c.Request().Context(), sess.Token)
	c.SetRequest(c.Request().WithContext(ctx))

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = sessions.Validate(t.Context(), sess.Token)
	assert.Error(t, err)

	// Logging out the same token again still answers 204.
	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/api/auth/logout", nil)
	c.SetRequest(c.Request().WithContext(auth.SetToken(c.Request().Context(), sess.Token)))
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMeHandler(t *testing.T) {
	h, repo, _ := newTestHandlers(t)

	identity := testutil.NewTestIdentity(t, repo, "alice@example.com", models.StatusActive)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/auth/me", nil)
	ctx := auth.SetIdentity(c.Request().Context(), identity)
	c.SetRequest(c.Request().WithContext(ctx))

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	me := body["identity"].(map[string]any)
	assert.Equal(t, identity.ID, me["id"])
	assert.Equal(t, "alice@example.com", me["email"])
}
