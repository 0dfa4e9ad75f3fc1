// Package bootstrap wires configuration into the store, the seeded
// administrator and the media uploader. Shared by the server and importer.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gamerank/backend/internal/auth"
	"gamerank/backend/internal/config"
	"gamerank/backend/internal/media"
	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"
	"gamerank/backend/internal/store/mongostore"
	"gamerank/backend/internal/store/sqlstore"
)

// OpenStore opens the backend selected by DATABASE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "mongo":
		s, err := mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "sqlite":
		s, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// EnsureAdmin creates the configured administrator when it does not exist yet.
// It does nothing when ADMIN_USERNAME or ADMIN_PASSWORD is empty.
func EnsureAdmin(ctx context.Context, users store.UserRepo, cfg *config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	email := cfg.AdminEmail
	if email == "" {
		email = cfg.AdminUsername + "@localhost"
	}
	admin := models.User{
		Username:     cfg.AdminUsername,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsStaff:      true,
	}
	if err := users.Create(ctx, &admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("Created administrator %q", admin.Username)
	return nil
}

// NewMedia returns nil when no bucket is configured; uploads are then refused.
func NewMedia(ctx context.Context, cfg *config.Config) (media.Uploader, error) {
	if !cfg.MediaEnabled() {
		log.Println("Media storage not configured, uploads disabled")
		return nil, nil
	}
	uploader, err := media.NewS3Uploader(ctx, media.Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		BaseURL:         cfg.MediaBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return uploader, nil
}
