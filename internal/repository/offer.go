package repository

import (
	"context"

	"carpool/internal/domain"
)

// CandidateQuery selects open offers near a trip's endpoints.
type CandidateQuery struct {
	Origin                  domain.Location
	Destination             domain.Location
	OriginRadiusMeters      float64
	DestinationRadiusMeters float64
	MinSeats                int
	Limit                   int
}

// OfferRepository defines the persistence operations for offers.
type OfferRepository interface {
	CapacityPool

	// Create persists a new offer.
	Create(ctx context.Context, offer *domain.Offer) error

	// GetByID retrieves an offer by ID.
	GetByID(ctx context.Context, id string) (*domain.Offer, error)

	// GetByIDs retrieves the offers with the given IDs. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Offer, error)

	// ListByDriver retrieves a driver's offers, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Offer, error)

	// ListOpen retrieves every open offer.
	ListOpen(ctx context.Context) ([]*domain.Offer, error)

	// FindCandidates returns open offers with enough seats whose origin and
	// destination both lie within the query radii, nearest origin first.
	FindCandidates(ctx context.Context, q CandidateQuery) ([]*domain.Offer, error)
}
