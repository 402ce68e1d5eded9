package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
)

// EnsureAdmin creates the administrator account when it does not exist yet.
// The password hash is stored as given and the account must change it on
// first login. Calling it again once the account exists is a no-op.
func EnsureAdmin(ctx context.Context, repo ports.CredentialRepository, username, passwordHash string, log zerolog.Logger) error {
	exists, err := repo.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	err = repo.Create(ctx, &domain.Credential{
		Username:           username,
		Role:               domain.RoleAdmin,
		PasswordHash:       passwordHash,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil && !errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	log.Info().Str("username", username).Msg("admin account bootstrapped")
	return nil
}
