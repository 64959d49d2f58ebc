package redis

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// OfferIndexInterface defines the geo index operations over open offers.
type OfferIndexInterface interface {
	Add(ctx context.Context, offer *domain.Offer) error
	Remove(ctx context.Context, offerID string) error
	Nearby(ctx context.Context, origin, dest domain.Location, originRadius, destRadius float64) ([]string, error)
	// Complete reports whether the index holds every open offer.
	Complete(ctx context.Context) (bool, error)
	SetComplete(ctx context.Context, complete bool) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ OfferIndexInterface = (*OfferIndex)(nil)
	_ LockStoreInterface  = (*LockStore)(nil)
)
