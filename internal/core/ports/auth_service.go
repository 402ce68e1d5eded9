package ports

import (
	"context"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.Credential, error)
	ChangePassword(ctx context.Context, username, newPassword, confirmation string) error
	IssueToken(cred *domain.Credential) (string, error)
}
