// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the identity service together and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/config"
	"codeberg.org/oliverandrich/identity-service/internal/database"
	"codeberg.org/oliverandrich/identity-service/internal/handlers"
	"codeberg.org/oliverandrich/identity-service/internal/i18n"
	"codeberg.org/oliverandrich/identity-service/internal/middleware"
	"codeberg.org/oliverandrich/identity-service/internal/repository"
	"codeberg.org/oliverandrich/identity-service/internal/services/account"
	"codeberg.org/oliverandrich/identity-service/internal/services/mailer"
	"codeberg.org/oliverandrich/identity-service/internal/services/otp"
	"codeberg.org/oliverandrich/identity-service/internal/services/session"
	"codeberg.org/oliverandrich/identity-service/internal/services/visit"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)
	codes := otp.NewService(repo, &cfg.OTP)
	sessions := session.NewManager(repo, cfg.Session.TTL)
	sender, err := mailer.NewService(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}
	accounts := account.NewService(repo, codes, sessions, sender, &cfg.OTP)
	visits := visit.NewService(repo)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, accounts, sessions, visits)

	// Background cleanup of expired codes, sessions and stale registrations
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, repo, sessions, cfg.OTP.PendingGracePeriod)

	return startWithGracefulShutdown(ctx, e, cfg)
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, accounts *account.Service, sessions *session.Manager, visits *visit.Service) {
	h := handlers.New(repo, accounts, sessions, visits)

	e.GET("/health", h.Health)

	// Public auth flows
	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/verify", h.VerifySignup)
	authGroup.POST("/resend", h.ResendCode)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)
	authGroup.POST("/login", h.Login)

	// Token-gated auth routes
	protected := e.Group("/api/auth", middleware.RequireSession(sessions, repo))
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)

	// Visit counting
	e.POST("/api/visits", h.RecordVisit)
	e.GET("/api/visits", h.VisitTotal)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal, context cancellation or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", "context canceled")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
