package db

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/config"
	"staffportal/internal/platform/docstore"
)

// Seed provisions the admin account named in the configuration. Re-running
// against an existing registry is a no-op apart from refreshing the profile
// role, so startup stays idempotent.
func Seed(ctx context.Context, svc *authsvc.Service, docs docstore.Store, cfg config.Config, log zerolog.Logger) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPass == "" {
		return nil
	}

	ident, err := svc.CreateUser(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPass)
	switch {
	case errors.Is(err, authsvc.ErrEmailInUse):
		log.Debug().Str("email", cfg.SeedAdminEmail).Msg("seed admin already registered")
		return nil
	case err != nil:
		return err
	}

	profile := map[string]any{
		"name":      cfg.SeedAdminName,
		"email":     ident.Email,
		"role":      "admin",
		"createdAt": docstore.Timestamp(time.Now()),
	}
	if err := docs.CreateOrReplace(ctx, cfg.UsersCollection(), ident.ID, profile); err != nil {
		return err
	}
	log.Info().Str("email", ident.Email).Msg("seed admin created")
	return nil
}
