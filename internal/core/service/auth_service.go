package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/metrics"
)

// AuthService implements login, password change and session tokens.
type AuthService struct {
	repo      ports.CredentialRepository
	hasher    PasswordHasher
	validate  *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.CredentialRepository, hasher PasswordHasher, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		validate:  validator.New(),
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Login checks the password against the stored hash. Unknown users and wrong
// passwords both yield domain.ErrAuthentication. The username is trimmed; the
// password is compared exactly as given, the same way ChangePassword stores it.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrAuthentication
	}

	cred, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrAuthentication
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(cred.PasswordHash, password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Info().Str("username", username).Msg("login rejected")
		return nil, domain.ErrAuthentication
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().
		Str("username", cred.Username).
		Str("role", cred.Role).
		Bool("must_change_pw", cred.MustChangePassword).
		Msg("login succeeded")
	return cred, nil
}

type passwordChange struct {
	NewPassword  string `validate:"min=8"`
	Confirmation string `validate:"eqfield=NewPassword"`
}

// ChangePassword replaces the password and clears the must-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, username, newPassword, confirmation string) error {
	if err := s.validatePasswordChange(newPassword, confirmation); err != nil {
		metrics.PasswordChangesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	if err := s.checkHasherLimit(newPassword); err != nil {
		metrics.PasswordChangesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		metrics.PasswordChangesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("change password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, username, hash); err != nil {
		metrics.PasswordChangesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("change password: %w", err)
	}

	metrics.PasswordChangesTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", username).Msg("password changed")
	return nil
}

func (s *AuthService) validatePasswordChange(newPassword, confirmation string) error {
	err := s.validate.Struct(passwordChange{NewPassword: newPassword, Confirmation: confirmation})
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err
	}
	// Length is reported before the confirmation mismatch.
	switch ve[0].Tag() {
	case "min":
		return &domain.ValidationError{Reason: fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength)}
	default:
		return &domain.ValidationError{Reason: "password confirmation does not match"}
	}
}

// checkHasherLimit rejects passwords the configured hasher cannot digest.
func (s *AuthService) checkHasherLimit(password string) error {
	l, ok := s.hasher.(lengthLimited)
	if !ok || len(password) <= l.MaxPasswordBytes() {
		return nil
	}
	return &domain.ValidationError{Reason: fmt.Sprintf("password must be at most %d bytes", l.MaxPasswordBytes())}
}

// IssueToken signs a session token for the HTTP front end.
func (s *AuthService) IssueToken(cred *domain.Credential) (string, error) {
	if s.jwtSecret == "" {
		return "", &domain.ConfigurationError{Reason: "JWT_SECRET is not set"}
	}
	claims := jwt.MapClaims{
		"username":       cred.Username,
		"role":           cred.Role,
		"must_change_pw": cred.MustChangePassword,
		"exp":            time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
