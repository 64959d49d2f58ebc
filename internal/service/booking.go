package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/events"
	"carpool/internal/repository"
)

// BookingService books seats directly on rides.
type BookingService struct {
	store     repository.Store
	allocator *CapacityAllocator
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(store repository.Store, allocator *CapacityAllocator, notifier Notifier, logger *slog.Logger) *BookingService {
	return &BookingService{store: store, allocator: allocator, notifier: notifier, logger: logger, now: time.Now}
}

// BookRequest contains the parameters for a direct booking.
type BookRequest struct {
	RideID  string
	RiderID string
	Seats   int
}

// Book reserves seats on a ride and records the booking in the same unit of
// work. The booking exists only if the reservation succeeded.
func (s *BookingService) Book(ctx context.Context, in BookRequest) (*domain.BookingDetail, error) {
	if in.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if in.RiderID == "" {
		return nil, ErrMissingCaller
	}
	if in.Seats < 1 {
		return nil, ErrInvalidSeats
	}

	var detail domain.BookingDetail
	err := s.allocator.Allocate(ctx, Claim{
		Path:       "booking",
		Resource:   "ride",
		ResourceID: in.RideID,
		Units:      in.Seats,
		Pool:       func(tx repository.Repos) repository.CapacityPool { return tx.Rides() },
	}, func(tx repository.Repos, _ int) error {
		ride, err := tx.Rides().GetByID(ctx, in.RideID)
		if err != nil {
			return err
		}
		booking := &domain.Booking{
			ID:          uuid.New().String(),
			RideID:      ride.ID,
			RiderID:     in.RiderID,
			SeatsBooked: in.Seats,
			EstFare:     ride.EstimatedFare(),
			Status:      domain.BookingStatusConfirmed,
			CreatedAt:   s.now().UTC(),
		}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return err
		}
		detail = domain.BookingDetail{Booking: booking, Ride: ride}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", detail.Booking.ID,
		"ride_id", in.RideID,
		"seats", in.Seats,
		"seats_remaining", detail.Ride.SeatsAvailable,
	)
	s.notifier.Notify(ctx, events.DriverChannel(detail.Ride.DriverID), events.BookingConfirmed, map[string]any{
		"bookingId": detail.Booking.ID,
		"rideId":    in.RideID,
		"seats":     in.Seats,
	})

	return &detail, nil
}

// ListMine returns the caller's bookings with their rides, newest first.
func (s *BookingService) ListMine(ctx context.Context, riderID string) ([]*domain.BookingDetail, error) {
	if riderID == "" {
		return nil, ErrMissingCaller
	}
	bookings, err := s.store.Bookings().ListByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	rides := make(map[string]*domain.Ride)
	out := make([]*domain.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		ride, ok := rides[b.RideID]
		if !ok {
			ride, err = s.store.Rides().GetByID(ctx, b.RideID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			rides[b.RideID] = ride
		}
		out = append(out, &domain.BookingDetail{Booking: b, Ride: ride})
	}
	return out, nil
}
