package postgres

import (
	"context"
	"database/sql"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, ride_id, rider_id, seats_booked, est_fare, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var fare sql.NullFloat64
	if b.EstFare != nil {
		fare = sql.NullFloat64{Float64: *b.EstFare, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		b.ID,
		b.RideID,
		b.RiderID,
		b.SeatsBooked,
		fare,
		b.Status,
		b.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// ListByRider retrieves a rider's bookings, newest first.
func (r *BookingRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Booking, error) {
	query := `
		SELECT id, ride_id, rider_id, seats_booked, est_fare, status, created_at
		FROM bookings WHERE rider_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		var b domain.Booking
		var fare sql.NullFloat64
		if err := rows.Scan(
			&b.ID,
			&b.RideID,
			&b.RiderID,
			&b.SeatsBooked,
			&fare,
			&b.Status,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if fare.Valid {
			f := fare.Float64
			b.EstFare = &f
		}
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}
