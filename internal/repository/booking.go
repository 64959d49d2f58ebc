package repository

import (
	"context"

	"carpool/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// ListByRider retrieves a rider's bookings, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Booking, error)
}
