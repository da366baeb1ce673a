// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/server"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// sources creates a value source chain combining env vars and TOML config
func sources(envKey, tomlKey string, tomlSrc altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, tomlSrc))
	return chain
}

func main() {
	var configFile string

	tomlSrc := altsrc.NewStringPtrSourcer(&configFile)

	cmd := &cli.Command{
		Name:    "identity-service",
		Usage:   "Email based identity verification service",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			// Config file
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "config.toml",
				Usage:       "Path to configuration file",
				Destination: &configFile,
				Sources:     cli.EnvVars("CONFIG"),
			},

			// Server settings
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "Server host",
				Sources: sources("HOST", "server.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "Server port",
				Sources: sources("PORT", "server.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL for the service",
				Sources: sources("BASE_URL", "server.base_url", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "max-body-size",
				Value:   64,
				Usage:   "Maximum request body size in KB",
				Sources: sources("MAX_BODY_SIZE", "server.max_body_size", tomlSrc),
			},

			// Database
			&cli.StringFlag{
				Name:    "database-dsn",
				Value:   "./data/identity.db",
				Usage:   "SQLite database path",
				Sources: sources("DATABASE_DSN", "database.dsn", tomlSrc),
			},

			// Mail delivery
			&cli.StringFlag{
				Name:    "smtp-host",
				Value:   "localhost",
				Usage:   "SMTP server host",
				Sources: sources("SMTP_HOST", "smtp.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "smtp-port",
				Value:   587,
				Usage:   "SMTP server port",
				Sources: sources("SMTP_PORT", "smtp.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-username",
				Usage:   "SMTP username",
				Sources: sources("SMTP_USERNAME", "smtp.username", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP password",
				Sources: sources("SMTP_PASSWORD", "smtp.password", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Value:   "noreply@localhost",
				Usage:   "From address for outgoing mail",
				Sources: sources("SMTP_FROM", "smtp.from", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from-name",
				Usage:   "Display name for outgoing mail",
				Sources: sources("SMTP_FROM_NAME", "smtp.from_name", tomlSrc),
			},
			&cli.BoolFlag{
				Name:    "smtp-tls",
				Value:   true,
				Usage:   "Use TLS for SMTP",
				Sources: sources("SMTP_TLS", "smtp.tls", tomlSrc),
			},

			// Verification codes
			&cli.DurationFlag{
				Name:    "otp-ttl",
				Value:   30 * time.Minute,
				Usage:   "Validity window of a verification code",
				Sources: sources("OTP_TTL", "otp.ttl", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "otp-resend-cooldown",
				Value:   30 * time.Second,
				Usage:   "Minimum interval between code resends",
				Sources: sources("OTP_RESEND_COOLDOWN", "otp.resend_cooldown", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "otp-pending-grace",
				Value:   15 * time.Minute,
				Usage:   "How long unverified registrations are kept",
				Sources: sources("OTP_PENDING_GRACE", "otp.pending_grace", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "otp-dispatch-timeout",
				Value:   10 * time.Second,
				Usage:   "Timeout for a single code delivery attempt",
				Sources: sources("OTP_DISPATCH_TIMEOUT", "otp.dispatch_timeout", tomlSrc),
			},

			// Sessions
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   24 * time.Hour,
				Usage:   "Lifetime of issued session tokens",
				Sources: sources("SESSION_TTL", "session.ttl", tomlSrc),
			},

			// Logging
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn, error",
				Sources: sources("LOG_LEVEL", "log.level", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text, json",
				Sources: sources("LOG_FORMAT", "log.format", tomlSrc),
			},
		},
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
