package ports

import (
	"context"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

// ImportResult summarises one roster import run.
type ImportResult struct {
	RunID  string
	Target domain.ImportTarget
	// Processed counts rows whose profile was upserted.
	Processed int
	// Created counts credential records inserted by this run.
	Created int
	// Skipped counts rows dropped for an empty identifier or name.
	Skipped int
}

// ProvisioningService imports rosters and provisions their login accounts.
type ProvisioningService interface {
	Import(ctx context.Context, target domain.ImportTarget, roster domain.Roster) (*ImportResult, error)
	ImportStudents(ctx context.Context, roster domain.Roster) (*ImportResult, error)
	ImportTeachers(ctx context.Context, roster domain.Roster) (*ImportResult, error)
}
