package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const rideColumns = `id, driver_id, origin_lat, origin_lng, origin_label,
		destination_lat, destination_lng, destination_label, depart_at,
		cost_per_km, distance_meters, seats_total, seats_available, status, created_at`

// Rides stay active when their last seat is booked.
var rideCapacity = capacitySpec{
	table:      "rides",
	openStatus: string(domain.RideStatusActive),
}

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var distance sql.NullFloat64
	if ride.DistanceMeters != nil {
		distance = sql.NullFloat64{Float64: *ride.DistanceMeters, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.Origin.Lat,
		ride.Origin.Lng,
		ride.Origin.Label,
		ride.Destination.Lat,
		ride.Destination.Lng,
		ride.Destination.Label,
		ride.DepartAt,
		ride.CostPerKm,
		distance,
		ride.SeatsTotal,
		ride.SeatsAvailable,
		ride.Status,
		ride.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// ListByDriver retrieves a driver's rides, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

// Search returns active rides with free seats near both endpoints,
// earliest departure first.
func (r *RideRepository) Search(ctx context.Context, q repository.RideSearch) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE status = $5
		  AND seats_available > 0
		  AND depart_at >= $6
		  AND ` + haversineSQL("origin_lat", "origin_lng", 1, 2) + ` <= $7
		  AND ` + haversineSQL("destination_lat", "destination_lng", 3, 4) + ` <= $7
		ORDER BY depart_at ASC, id ASC
		LIMIT $8
	`

	return r.list(ctx, query,
		q.Origin.Lat,
		q.Origin.Lng,
		q.Destination.Lat,
		q.Destination.Lng,
		domain.RideStatusActive,
		q.DepartAfter,
		q.RadiusMeters,
		q.Limit,
	)
}

// Reserve atomically takes seats from an active ride.
func (r *RideRepository) Reserve(ctx context.Context, id string, units int) (int, error) {
	return reserveCapacity(ctx, r.q, rideCapacity, id, units)
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var distance sql.NullFloat64
	err := row.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.Origin.Lat,
		&ride.Origin.Lng,
		&ride.Origin.Label,
		&ride.Destination.Lat,
		&ride.Destination.Lng,
		&ride.Destination.Label,
		&ride.DepartAt,
		&ride.CostPerKm,
		&distance,
		&ride.SeatsTotal,
		&ride.SeatsAvailable,
		&ride.Status,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if distance.Valid {
		d := distance.Float64
		ride.DistanceMeters = &d
	}
	return &ride, nil
}
