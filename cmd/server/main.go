package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/blob"
	"sitedesk-backend/internal/blob/local"
	"sitedesk-backend/internal/blob/s3"
	"sitedesk-backend/internal/config"
	"sitedesk-backend/internal/database"
	"sitedesk-backend/internal/logger"
	"sitedesk-backend/internal/metrics"
	"sitedesk-backend/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, warnings, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.App.Env)
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := database.NewStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("close store", "err", err)
		}
	}()

	created, err := auth.EnsureAdmin(ctx, st.Users, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Name)
	if err != nil {
		return err
	}
	if created {
		log.Info("admin account created", "username", cfg.Admin.Username)
	}

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	app := server.New(server.Deps{
		Config:  cfg,
		Store:   st,
		Blobs:   blobs,
		Log:     log,
		Metrics: m,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.HTTP.Port, "env", cfg.App.Env)
		errCh <- app.Listen(":" + cfg.HTTP.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openBlobs(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Driver {
	case "s3":
		return s3.New(ctx, s3.Config{
			Region:          cfg.Blob.S3.Region,
			Bucket:          cfg.Blob.S3.Bucket,
			Endpoint:        cfg.Blob.S3.Endpoint,
			PathStyle:       cfg.Blob.S3.PathStyle,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
		})
	default:
		return local.New(cfg.Blob.LocalPath)
	}
}
