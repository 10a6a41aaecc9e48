// Package app wires configuration, storage and HTTP handlers into a runnable
// handler shared by the server binary and the serverless entry point.
package app

import (
	"context"
	"fmt"
	"net/http"

	"qr-serverless/internal/auth"
	"qr-serverless/internal/config"
	"qr-serverless/internal/db"
	"qr-serverless/internal/observability"
	"qr-serverless/internal/qrcode"
)

type Options struct {
	LoadDotEnv bool
	// RunMigrations applies migrations even when the config leaves them off.
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Config  config.Config
	Logger  *observability.Logger
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(config.Options{LoadDotEnv: options.LoadDotEnv})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL, cfg.DB)
	if err != nil {
		return nil, err
	}

	if options.RunMigrations || cfg.RunMigrations {
		if err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations_applied", nil)
	}

	handler, err := NewHandler(Dependencies{
		Config:     cfg,
		Logger:     logger,
		Identities: auth.NewRepository(database),
		Records:    qrcode.NewRepository(database),
		Health:     database,
	})
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("build handler: %w", err)
	}

	return &Runtime{
		Handler: handler,
		Config:  cfg,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}
