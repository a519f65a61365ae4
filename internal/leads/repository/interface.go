package repository

import (
	"context"

	"leadsync_backend/internal/leads/domain"
)

// Repository is the canonical in-process store of lead records.
// There is deliberately no delete operation.
type Repository interface {
	// All returns the full lead list, newest first.
	All(ctx context.Context) []domain.Lead
	// GetByID returns a lead or apperr.NotFound.
	GetByID(ctx context.Context, id string) (domain.Lead, error)
	// AddNew merges candidates by set-union on ID: only ids absent from the
	// current set are added, existing records are never overwritten.
	// Returns the number of leads actually added.
	AddNew(ctx context.Context, candidates []domain.Lead) int
	// Replace swaps the stored record with the given one, keyed by ID.
	// The whole record is replaced; there is no partial field mutation.
	Replace(ctx context.Context, lead domain.Lead) error
	// ReplaceAll swaps the entire lead list.
	ReplaceAll(ctx context.Context, leads []domain.Lead)
}

// Store is the durable key-value persistence collaborator. The repository
// hydrates from it once at startup and writes through on every mutation.
type Store interface {
	Load(ctx context.Context) ([]domain.Lead, error)
	Save(ctx context.Context, leads []domain.Lead) error
}
