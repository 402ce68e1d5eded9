package ports

import (
	"context"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

// CredentialRepository persists login records keyed by username.
type CredentialRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no record matches.
	FindByUsername(ctx context.Context, username string) (*domain.Credential, error)
	Exists(ctx context.Context, username string) (bool, error)
	// Create returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, cred *domain.Credential) error
	// UpdatePassword sets the hash and clears the must-change flag in a
	// single update.
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
