package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

const (
	HashSHA256 = "sha256"
	HashBcrypt = "bcrypt"
)

// PasswordHasher turns a plaintext password into the string stored in a
// credential record and checks candidates against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// NewHasher returns the hasher registered under name. An empty name selects
// SHA-256, the format existing credential stores hold.
func NewHasher(name string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HashSHA256:
		return SHA256Hasher{}, nil
	case HashBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	}
	return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("unknown PASSWORD_HASH %q (expected sha256 or bcrypt)", name)}
}

// SHA256Hasher stores the unsalted hex SHA-256 digest of the password.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	return sha256Hex(password), nil
}

func (SHA256Hasher) Verify(hash, password string) bool {
	return verifyPassword(hash, password)
}

// bcrypt rejects passwords longer than this many bytes.
const bcryptMaxPasswordBytes = 72

// lengthLimited is implemented by hashers that reject long inputs.
type lengthLimited interface {
	MaxPasswordBytes() int
}

// BcryptHasher stores bcrypt hashes. Verification still accepts SHA-256
// digests so accounts created before the switch keep working.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (BcryptHasher) MaxPasswordBytes() int { return bcryptMaxPasswordBytes }

func (BcryptHasher) Verify(hash, password string) bool {
	return verifyPassword(hash, password)
}

func verifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(sha256Hex(password))) == 1
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
