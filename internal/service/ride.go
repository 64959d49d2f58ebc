package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// RideSearchDefaults holds the ride search parameters used when a caller
// omits them.
type RideSearchDefaults struct {
	RadiusMeters int
	Limit        int
}

// RideService publishes, lists and searches bookable rides.
type RideService struct {
	rides    repository.RideRepository
	defaults RideSearchDefaults
	logger   *slog.Logger
	now      func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(rides repository.RideRepository, defaults RideSearchDefaults, logger *slog.Logger) *RideService {
	return &RideService{rides: rides, defaults: defaults, logger: logger, now: time.Now}
}

// CreateRideRequest contains the parameters for publishing a ride.
type CreateRideRequest struct {
	DriverID       string
	Origin         domain.Location
	Destination    domain.Location
	DepartAt       time.Time
	CostPerKm      float64
	DistanceMeters *float64
	SeatsTotal     int
}

// Create validates and stores a new active ride with every seat available.
func (s *RideService) Create(ctx context.Context, in CreateRideRequest) (*domain.Ride, error) {
	if in.DriverID == "" {
		return nil, ErrMissingCaller
	}
	if err := validateTrip(in.Origin, in.Destination); err != nil {
		return nil, err
	}
	if in.DepartAt.IsZero() {
		return nil, ErrInvalidDepartAt
	}
	if in.CostPerKm < 0 {
		return nil, ErrInvalidCostPerKm
	}
	if in.DistanceMeters != nil && *in.DistanceMeters < 0 {
		return nil, ErrInvalidDistance
	}
	if in.SeatsTotal < 1 || in.SeatsTotal > domain.MaxOfferSeats {
		return nil, ErrInvalidSeatsTotal
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		DriverID:       in.DriverID,
		Origin:         in.Origin,
		Destination:    in.Destination,
		DepartAt:       in.DepartAt.UTC(),
		CostPerKm:      in.CostPerKm,
		DistanceMeters: in.DistanceMeters,
		SeatsTotal:     in.SeatsTotal,
		SeatsAvailable: in.SeatsTotal,
		Status:         domain.RideStatusActive,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "ride published", "ride_id", ride.ID, "driver_id", ride.DriverID, "seats", ride.SeatsTotal)
	return ride, nil
}

// ListMine returns the caller's rides, newest first.
func (s *RideService) ListMine(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrMissingCaller
	}
	rides, err := s.rides.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if rides == nil {
		rides = []*domain.Ride{}
	}
	return rides, nil
}

// SearchRidesRequest contains the parameters for a ride search.
type SearchRidesRequest struct {
	Origin       domain.Location
	Destination  domain.Location
	RadiusMeters *int
	DepartAfter  time.Time
}

// Search returns active rides with free seats near both endpoints,
// earliest departure first.
func (s *RideService) Search(ctx context.Context, in SearchRidesRequest) ([]*domain.Ride, error) {
	if err := validateTrip(in.Origin, in.Destination); err != nil {
		return nil, err
	}
	radius, err := radiusOrDefault(in.RadiusMeters, s.defaults.RadiusMeters)
	if err != nil {
		return nil, err
	}

	rides, err := s.rides.Search(ctx, repository.RideSearch{
		Origin:       in.Origin,
		Destination:  in.Destination,
		RadiusMeters: float64(radius),
		DepartAfter:  in.DepartAfter,
		Limit:        s.defaults.Limit,
	})
	if err != nil {
		return nil, err
	}
	if rides == nil {
		rides = []*domain.Ride{}
	}
	return rides, nil
}
