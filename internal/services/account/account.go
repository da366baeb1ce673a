// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account drives identities through signup verification and password
// reset. It owns every status mutation on an identity.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/config"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/services/otp"
	"codeberg.org/oliverandrich/identity-service/internal/services/session"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("identity not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	// ErrNotVerified is returned on login for an identity that has not
	// confirmed its email yet; the boundary forwards the identity id so the
	// client can jump straight to code entry.
	ErrNotVerified = errors.New("account not verified")
	// ErrAlreadyVerified is returned when a signup code is requested for an
	// identity that is already active.
	ErrAlreadyVerified = errors.New("account already verified")
)

// MinPasswordLength is the minimum accepted credential length.
const MinPasswordLength = 8

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// CodeSender is the notification capability this core consumes. Delivery is
// best-effort; implementations report failure, they do not retry forever.
type CodeSender interface {
	SendCode(ctx context.Context, to string, purpose models.OTPPurpose, code string, validMinutes int) error
}

// Service is the verification state machine.
type Service struct {
	repo            *repository.Repository
	codes           *otp.Service
	sessions        *session.Manager
	sender          CodeSender
	codeTTL         time.Duration
	dispatchTimeout time.Duration
}

// NewService creates a new account service.
func NewService(repo *repository.Repository, codes *otp.Service, sessions *session.Manager, sender CodeSender, cfg *config.OTPConfig) *Service {
	return &Service{
		repo:            repo,
		codes:           codes,
		sessions:        sessions,
		sender:          sender,
		codeTTL:         cfg.TTL,
		dispatchTimeout: cfg.DispatchTimeout,
	}
}

// RegisterParams holds the parameters for a registration request.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an identity in pending state and sends it a signup code.
// An active identity with the same email is a conflict; a pending one is
// replaced, matching what a user expects after an abandoned registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Identity, error) {
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(params.Password, email); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetIdentityByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking existing identity: %w", err)
	}
	if existing != nil && existing.IsActive() {
		return nil, ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	identity := &models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(passwordHash),
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Status:       models.StatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	code, err := s.codes.Issue(ctx, identity.ID, models.PurposeSignup)
	if err != nil {
		return nil, fmt.Errorf("issuing signup code: %w", err)
	}
	s.dispatch(ctx, identity.Email, models.PurposeSignup, code)

	slog.Info("register_pending", "identity_id", identity.ID, "email", identity.Email)
	return identity, nil
}

// VerifySignup redeems a signup code. On success the identity becomes active
// and a session is issued. On any code error the identity stays pending and
// the specific error is surfaced.
func (s *Service) VerifySignup(ctx context.Context, identityID, code string) (*models.Identity, *session.Session, error) {
	identity, err := s.repo.GetIdentityByID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading identity: %w", err)
	}

	if err := s.codes.Consume(ctx, identity.ID, models.PurposeSignup, code); err != nil {
		slog.Warn("verify_signup_failed", "identity_id", identity.ID, "reason", err)
		return nil, nil, err
	}

	if !identity.IsActive() {
		if err := s.repo.UpdateIdentityStatus(ctx, identity.ID, models.StatusActive); err != nil {
			return nil, nil, fmt.Errorf("activating identity: %w", err)
		}
		identity.Status = models.StatusActive
	}

	sess, err := s.sessions.Issue(ctx, identity.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issuing session: %w", err)
	}

	slog.Info("verify_signup_success", "identity_id", identity.ID)
	return identity, sess, nil
}

// RequestPasswordReset issues a reset code for an active identity. The
// identity's stored status does not change; reset eligibility is carried
// entirely by the unconsumed code. Whether the NotFound outcome is disclosed
// to end users is the boundary's call, not this core's.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*models.Identity, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrNotFound
	}

	identity, err := s.repo.GetIdentityByEmail(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}
	if !identity.IsActive() {
		return nil, ErrNotFound
	}

	code, err := s.codes.Issue(ctx, identity.ID, models.PurposePasswordReset)
	if err != nil {
		return nil, fmt.Errorf("issuing reset code: %w", err)
	}
	s.dispatch(ctx, identity.Email, models.PurposePasswordReset, code)

	slog.Info("password_reset_requested", "identity_id", identity.ID)
	return identity, nil
}

// ResetPassword redeems a reset code and replaces the credential hash. It
// does not issue a session; the user logs in explicitly afterwards. All
// existing sessions are revoked so a stolen token dies with the old password.
func (s *Service) ResetPassword(ctx context.Context, identityID, code, newPassword string) error {
	identity, err := s.repo.GetIdentityByID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}

	if err := validatePassword(newPassword, identity.Email); err != nil {
		return err
	}

	if err := s.codes.Consume(ctx, identity.ID, models.PurposePasswordReset, code); err != nil {
		slog.Warn("password_reset_failed", "identity_id", identity.ID, "reason", err)
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.repo.UpdateIdentityPassword(ctx, identity.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if err := s.sessions.RevokeAll(ctx, identity.ID); err != nil {
		return fmt.Errorf("revoking sessions: %w", err)
	}

	slog.Info("password_reset_success", "identity_id", identity.ID)
	return nil
}

// ResendCode reissues a code for the pair, gated by the resend cooldown.
func (s *Service) ResendCode(ctx context.Context, identityID string, purpose models.OTPPurpose) error {
	identity, err := s.repo.GetIdentityByID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}

	switch purpose {
	case models.PurposeSignup:
		if identity.IsActive() {
			return ErrAlreadyVerified
		}
	case models.PurposePasswordReset:
		if !identity.IsActive() {
			return ErrNotFound
		}
	default:
		return otp.ErrInvalidPurpose
	}

	code, err := s.codes.Reissue(ctx, identity.ID, purpose)
	if err != nil {
		return err
	}
	s.dispatch(ctx, identity.Email, purpose, code)

	slog.Info("code_resent", "identity_id", identity.ID, "purpose", purpose)
	return nil
}

// Login authenticates an active identity and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Identity, *session.Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	identity, err := s.repo.GetIdentityByEmail(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		// Constant-time: always perform bcrypt comparison to prevent timing attacks
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		slog.Warn("login_failed", "email", normalized, "reason", "identity_not_found")
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", normalized, "reason", "invalid_password")
		return nil, nil, ErrInvalidCredentials
	}

	if !identity.IsActive() {
		return identity, nil, ErrNotVerified
	}

	sess, err := s.sessions.Issue(ctx, identity.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issuing session: %w", err)
	}

	slog.Info("login_success", "identity_id", identity.ID)
	return identity, sess, nil
}

// GetIdentity loads an identity by id.
func (s *Service) GetIdentity(ctx context.Context, identityID string) (*models.Identity, error) {
	identity, err := s.repo.GetIdentityByID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return identity, err
}

// dispatch hands a code to the notification capability without blocking the
// calling request. A slow or failed delivery is a soft warning; the code
// stays issued and valid.
func (s *Service) dispatch(ctx context.Context, email string, purpose models.OTPPurpose, code string) {
	timeout := s.dispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	minutes := int(s.codeTTL.Minutes())

	// Detach from the request's cancellation but keep its values, so the
	// email is localized to the requester even after the response went out.
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := s.sender.SendCode(ctx, email, purpose, code, minutes); err != nil {
			slog.Warn("otp_delivery_failed", "email", email, "purpose", purpose, "error", err)
		}
	}()
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}
