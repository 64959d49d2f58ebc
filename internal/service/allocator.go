package service

import (
	"context"
	"errors"
	"log/slog"

	"carpool/internal/domain"
	"carpool/internal/observability"
	"carpool/internal/repository"
)

// Claim describes a reservation of units from one capacity pool.
type Claim struct {
	// Path labels the caller for metrics and logs, e.g. "accept" or "booking".
	Path string
	// Resource names the pool's entity type in errors, e.g. "offer".
	Resource   string
	ResourceID string
	Units      int
	// Pool selects the capacity pool from the transaction's repositories.
	Pool func(tx repository.Repos) repository.CapacityPool
}

// CapacityAllocator reserves capacity and applies the writes that depend on
// it as one unit of work. The reservation is the store's guarded decrement;
// if any dependent write fails, the reservation is rolled back with it.
type CapacityAllocator struct {
	store  repository.Store
	logger *slog.Logger
}

// NewCapacityAllocator creates a new CapacityAllocator.
func NewCapacityAllocator(store repository.Store, logger *slog.Logger) *CapacityAllocator {
	return &CapacityAllocator{store: store, logger: logger}
}

// Allocate reserves claim.Units and then runs then with the remaining units.
// A failed guard yields domain.CapacityExhaustedError and an unknown pool
// domain.NotFoundError; in both cases nothing was written.
func (a *CapacityAllocator) Allocate(ctx context.Context, claim Claim, then func(tx repository.Repos, remaining int) error) error {
	err := a.store.WithinTx(ctx, func(tx repository.Repos) error {
		remaining, err := claim.Pool(tx).Reserve(ctx, claim.ResourceID, claim.Units)
		switch {
		case errors.Is(err, repository.ErrInsufficientCapacity):
			return domain.CapacityExhaustedError{Resource: claim.Resource, ID: claim.ResourceID, Requested: claim.Units}
		case errors.Is(err, repository.ErrNotFound):
			return domain.NotFoundError{Resource: claim.Resource, ID: claim.ResourceID}
		case err != nil:
			return err
		}
		return then(tx, remaining)
	})

	switch {
	case err == nil:
		observability.Allocations.WithLabelValues(claim.Path, "ok").Inc()
	case domain.IsCapacityExhausted(err):
		observability.Allocations.WithLabelValues(claim.Path, "exhausted").Inc()
		a.logger.InfoContext(ctx, "capacity exhausted",
			"path", claim.Path,
			"resource", claim.Resource,
			"resource_id", claim.ResourceID,
			"units", claim.Units,
		)
	case domain.IsConflict(err), errors.Is(err, errMatchResolved):
		observability.Allocations.WithLabelValues(claim.Path, "conflict").Inc()
	default:
		observability.Allocations.WithLabelValues(claim.Path, "error").Inc()
	}
	return err
}
