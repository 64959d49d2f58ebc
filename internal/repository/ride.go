package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// RideSearch selects active rides near a trip's endpoints.
type RideSearch struct {
	Origin       domain.Location
	Destination  domain.Location
	RadiusMeters float64
	DepartAfter  time.Time // Zero means no lower bound.
	Limit        int
}

// RideRepository defines the persistence operations for bookable rides.
type RideRepository interface {
	CapacityPool

	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByDriver retrieves a driver's rides, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// Search returns active rides with free seats, earliest departure first.
	Search(ctx context.Context, q RideSearch) ([]*domain.Ride, error)
}
