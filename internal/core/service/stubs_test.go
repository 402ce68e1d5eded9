package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory credential store
// ---------------------------------------------------------------------------

type stubCredRepo struct {
	users     map[string]*domain.Credential
	inserts   int
	findErr   error
	existsErr error
}

func newStubCredRepo() *stubCredRepo {
	return &stubCredRepo{users: make(map[string]*domain.Credential)}
}

func (r *stubCredRepo) FindByUsername(_ context.Context, username string) (*domain.Credential, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubCredRepo) Exists(_ context.Context, username string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubCredRepo) Create(_ context.Context, cred *domain.Credential) error {
	if _, ok := r.users[cred.Username]; ok {
		return domain.ErrUserExists
	}
	clone := *cred
	r.users[cred.Username] = &clone
	r.inserts++
	return nil
}

func (r *stubCredRepo) UpdatePassword(_ context.Context, username, hash string) error {
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.MustChangePassword = false
	return nil
}

// ---------------------------------------------------------------------------
// In-memory profile store
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	students  map[string]map[string]string
	teachers  map[string]map[string]string
	accounts  map[string][]string
	upserts   int
	upsertErr error
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{
		students: make(map[string]map[string]string),
		teachers: make(map[string]map[string]string),
		accounts: make(map[string][]string),
	}
}

func merge(dst map[string]string, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (r *stubProfileRepo) UpsertStudent(_ context.Context, studentID string, fields map[string]string) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.students[studentID] = merge(r.students[studentID], fields)
	return nil
}

func (r *stubProfileRepo) UpsertTeacher(_ context.Context, name string, fields map[string]string) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.teachers[name] = merge(r.teachers[name], fields)
	return nil
}

func (r *stubProfileRepo) TeacherAccounts(_ context.Context, name string) ([]string, error) {
	return append([]string(nil), r.accounts[name]...), nil
}

func (r *stubProfileRepo) LinkTeacherAccount(_ context.Context, name, username string) error {
	for _, u := range r.accounts[name] {
		if u == username {
			return nil
		}
	}
	r.accounts[name] = append(r.accounts[name], username)
	return nil
}

var errStoreDown = errors.New("store down")
