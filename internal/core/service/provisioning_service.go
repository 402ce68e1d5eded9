package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/metrics"
)

// ProvisioningService imports rosters into the profile collections and
// creates a login account for every new student or teacher.
type ProvisioningService struct {
	creds    ports.CredentialRepository
	profiles ports.ProfileRepository
	hasher   PasswordHasher
	log      zerolog.Logger
	now      func() time.Time
}

func NewProvisioningService(creds ports.CredentialRepository, profiles ports.ProfileRepository, hasher PasswordHasher, log zerolog.Logger) *ProvisioningService {
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	return &ProvisioningService{
		creds:    creds,
		profiles: profiles,
		hasher:   hasher,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Import dispatches to the importer for target.
func (s *ProvisioningService) Import(ctx context.Context, target domain.ImportTarget, roster domain.Roster) (*ports.ImportResult, error) {
	switch target {
	case domain.TargetStudent:
		return s.ImportStudents(ctx, roster)
	case domain.TargetTeacher:
		return s.ImportTeachers(ctx, roster)
	}
	return nil, &domain.ValidationError{Reason: fmt.Sprintf("unknown import target %q", target)}
}

// ImportStudents upserts one student profile per row keyed by student id and
// creates a student account named after the id when none exists. Rows with
// an empty id or name are skipped.
func (s *ProvisioningService) ImportStudents(ctx context.Context, roster domain.Roster) (*ports.ImportResult, error) {
	res := s.newResult(domain.TargetStudent)
	start := time.Now()

	idCol, ok := roster.PickColumn(domain.StudentIDColumns...)
	if !ok {
		return nil, s.missingColumn(res, domain.FieldStudentID, domain.StudentIDColumns)
	}
	nameCol, ok := roster.PickColumn(domain.StudentNameColumns...)
	if !ok {
		return nil, s.missingColumn(res, domain.FieldName, domain.StudentNameColumns)
	}

	hash, err := s.hasher.Hash(domain.DefaultStudentPassword)
	if err != nil {
		return nil, s.fail(res, fmt.Errorf("import students: %w", err))
	}

	for _, row := range roster.Rows {
		sid := strings.TrimSpace(row[idCol])
		name := strings.TrimSpace(row[nameCol])
		if sid == "" || name == "" {
			res.Skipped++
			continue
		}

		fields := profileFields(row)
		fields[domain.FieldStudentID] = sid
		fields[domain.FieldName] = name
		if err := s.profiles.UpsertStudent(ctx, sid, fields); err != nil {
			return res, s.fail(res, fmt.Errorf("import students: upsert %s: %w", sid, err))
		}

		created, err := s.ensureAccount(ctx, sid, domain.RoleStudent, hash)
		if err != nil {
			return res, s.fail(res, fmt.Errorf("import students: account %s: %w", sid, err))
		}
		if created {
			res.Created++
		}
		res.Processed++
	}

	s.finish(res, start)
	return res, nil
}

// ImportTeachers upserts one teacher profile per row keyed by name. Each
// occurrence of a name within a roster stands for a distinct teacher: the
// n-th occurrence reuses the n-th account already linked to that name and
// otherwise gets a fresh username from the collision policy.
func (s *ProvisioningService) ImportTeachers(ctx context.Context, roster domain.Roster) (*ports.ImportResult, error) {
	res := s.newResult(domain.TargetTeacher)
	start := time.Now()

	nameCol, ok := roster.PickColumn(domain.TeacherNameColumns...)
	if !ok {
		return nil, s.missingColumn(res, domain.FieldName, domain.TeacherNameColumns)
	}

	hash, err := s.hasher.Hash(domain.DefaultTeacherPassword)
	if err != nil {
		return nil, s.fail(res, fmt.Errorf("import teachers: %w", err))
	}

	occurrences := make(map[string]int)
	for _, row := range roster.Rows {
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			res.Skipped++
			continue
		}

		fields := profileFields(row)
		fields[domain.FieldName] = name
		if err := s.profiles.UpsertTeacher(ctx, name, fields); err != nil {
			return res, s.fail(res, fmt.Errorf("import teachers: upsert %s: %w", name, err))
		}

		nth := occurrences[name]
		occurrences[name]++

		linked, err := s.profiles.TeacherAccounts(ctx, name)
		if err != nil {
			return res, s.fail(res, fmt.Errorf("import teachers: accounts of %s: %w", name, err))
		}
		if nth < len(linked) {
			res.Processed++
			continue
		}

		username, err := ResolveUsername(ctx, s.creds.Exists, name)
		if err != nil {
			return res, s.fail(res, fmt.Errorf("import teachers: username for %s: %w", name, err))
		}
		created, err := s.ensureAccount(ctx, username, domain.RoleTeacher, hash)
		if err != nil {
			return res, s.fail(res, fmt.Errorf("import teachers: account %s: %w", username, err))
		}
		if created {
			res.Created++
			if err := s.profiles.LinkTeacherAccount(ctx, name, username); err != nil {
				return res, s.fail(res, fmt.Errorf("import teachers: link %s: %w", username, err))
			}
		}
		res.Processed++
	}

	s.finish(res, start)
	return res, nil
}

// ResolveUsername returns base when it is free, otherwise base1, base2, ...
// whichever is free first.
func ResolveUsername(ctx context.Context, exists func(context.Context, string) (bool, error), base string) (string, error) {
	candidate := base
	for k := 1; ; k++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, k)
	}
}

// ensureAccount creates the credential unless the username is taken and
// reports whether it inserted one.
func (s *ProvisioningService) ensureAccount(ctx context.Context, username, role, hash string) (bool, error) {
	exists, err := s.creds.Exists(ctx, username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	now := s.now()
	err = s.creds.Create(ctx, &domain.Credential{
		Username:           username,
		Role:               role,
		PasswordHash:       hash,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	metrics.AccountsProvisionedTotal.WithLabelValues(role).Inc()
	return true, nil
}

func (s *ProvisioningService) newResult(target domain.ImportTarget) *ports.ImportResult {
	return &ports.ImportResult{RunID: uuid.NewString(), Target: target}
}

func (s *ProvisioningService) missingColumn(res *ports.ImportResult, field string, accepted []string) error {
	metrics.ImportsTotal.WithLabelValues(string(res.Target), "missing_column").Inc()
	s.log.Warn().
		Str("run_id", res.RunID).
		Str("target", string(res.Target)).
		Str("field", field).
		Msg("roster rejected: missing column")
	return &domain.MissingColumnError{Target: res.Target, Field: field, Accepted: accepted}
}

func (s *ProvisioningService) fail(res *ports.ImportResult, err error) error {
	metrics.ImportsTotal.WithLabelValues(string(res.Target), "error").Inc()
	s.log.Error().
		Err(err).
		Str("run_id", res.RunID).
		Str("target", string(res.Target)).
		Int("processed", res.Processed).
		Msg("roster import aborted")
	return err
}

func (s *ProvisioningService) finish(res *ports.ImportResult, start time.Time) {
	target := string(res.Target)
	metrics.ImportsTotal.WithLabelValues(target, "ok").Inc()
	metrics.ImportRowsTotal.WithLabelValues(target, "processed").Add(float64(res.Processed))
	metrics.ImportRowsTotal.WithLabelValues(target, "skipped").Add(float64(res.Skipped))
	metrics.ImportDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("run_id", res.RunID).
		Str("target", target).
		Int("processed", res.Processed).
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Msg("roster imported")
}

func profileFields(row domain.RosterRow) map[string]string {
	fields := make(map[string]string, len(row)+1)
	for k, v := range row {
		fields[k] = v
	}
	return fields
}
