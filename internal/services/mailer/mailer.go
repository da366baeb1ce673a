// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package mailer delivers one-time passcodes to recipients over SMTP.
package mailer

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/identity-service/internal/config"
	"codeberg.org/oliverandrich/identity-service/internal/i18n"
	"codeberg.org/oliverandrich/identity-service/internal/models"
	"github.com/wneessen/go-mail"
)

// Service sends code emails. Delivery is best-effort from the caller's point
// of view; a failure here never rolls back the state transition that
// triggered it.
type Service struct {
	cfg *config.SMTPConfig
}

// NewService creates a new mailer service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg}, nil
}

// SendCode delivers a passcode for the given flow to the recipient. The
// context bounds the whole SMTP exchange.
func (s *Service) SendCode(ctx context.Context, to string, purpose models.OTPPurpose, code string, validMinutes int) error {
	var subjectID, bodyID string
	switch purpose {
	case models.PurposeSignup:
		subjectID, bodyID = "otp_signup_subject", "otp_signup_body"
	case models.PurposePasswordReset:
		subjectID, bodyID = "otp_reset_subject", "otp_reset_body"
	default:
		return fmt.Errorf("unknown code purpose %q", purpose)
	}

	subject := i18n.T(ctx, subjectID)
	body := i18n.TData(ctx, bodyID, map[string]any{
		"Code":    code,
		"Minutes": validMinutes,
	})

	return s.send(ctx, to, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	// Build client options
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
