package server

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the bootstrap admin account and the default
// settings row. Idempotent: does nothing if any admin exists.
func SeedAdmin(ctx context.Context, logger *slog.Logger, store Store, email, password string) error {
	count, err := store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if err := store.CreateAdmin(ctx, email, string(hash)); err != nil {
		return err
	}

	// Materialize the settings singleton so the first GET is a read.
	if _, err := store.GetSettings(ctx); err != nil {
		return err
	}

	logger.Info("bootstrap admin created", "email", email)
	return nil
}
