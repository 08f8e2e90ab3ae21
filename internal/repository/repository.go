// Package repository defines the storage interfaces the service layer depends
// on. Concrete implementations live in subpackages (sqlite); services only
// ever see these interfaces, which is what lets tests swap in mocks.
package repository

import (
	"context"

	"github.com/sakif/codelens/internal/model"
)

// UserRepository owns account records.
//
// Username and email lookups are case-insensitive: "Sakif" and "sakif" are
// the same account. Create must fail with apperror.Conflict when either is
// already taken under that comparison.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub creates or refreshes an account keyed by GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
	// UpdateStats overwrites the denormalised analysis aggregates.
	UpdateStats(ctx context.Context, id string, analysesCount int, averageScore float64) error
}

// ReportRepository owns analysis reports. Reports are write-once: there is no
// update or delete; history only grows, newest first.
type ReportRepository interface {
	Save(ctx context.Context, report *model.Report) error
	// ListForUser returns the user's reports newest-first; empty slice if none.
	ListForUser(ctx context.Context, userID string) ([]model.Report, error)
	// GetByID returns one report, scoped to its owner.
	GetByID(ctx context.Context, userID, id string) (*model.Report, error)
}
