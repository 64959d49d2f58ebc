package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// OfferService publishes and lists driver offers.
type OfferService struct {
	offers  repository.OfferRepository
	indexer OfferIndexer
	logger  *slog.Logger
	now     func() time.Time
}

// NewOfferService creates a new OfferService. indexer may be nil.
func NewOfferService(offers repository.OfferRepository, indexer OfferIndexer, logger *slog.Logger) *OfferService {
	return &OfferService{offers: offers, indexer: indexer, logger: logger, now: time.Now}
}

// CreateOfferRequest contains the parameters for publishing an offer.
// Nil optional fields take their defaults.
type CreateOfferRequest struct {
	DriverID          string
	Origin            domain.Location
	Destination       domain.Location
	PickupTime        time.Time
	TimeWindowMinutes *int
	SeatsTotal        *int
}

// Create validates and stores a new open offer with every seat available.
func (s *OfferService) Create(ctx context.Context, in CreateOfferRequest) (*domain.Offer, error) {
	if in.DriverID == "" {
		return nil, ErrMissingCaller
	}
	if err := validateTrip(in.Origin, in.Destination); err != nil {
		return nil, err
	}
	if in.PickupTime.IsZero() {
		return nil, ErrInvalidPickupTime
	}
	window, err := timeWindowOrDefault(in.TimeWindowMinutes)
	if err != nil {
		return nil, err
	}
	seats := domain.DefaultOfferSeats
	if in.SeatsTotal != nil {
		seats = *in.SeatsTotal
	}
	if seats < 1 || seats > domain.MaxOfferSeats {
		return nil, ErrInvalidSeatsTotal
	}

	offer := &domain.Offer{
		ID:                uuid.New().String(),
		DriverID:          in.DriverID,
		Origin:            in.Origin,
		Destination:       in.Destination,
		PickupTime:        in.PickupTime.UTC(),
		TimeWindowMinutes: window,
		SeatsTotal:        seats,
		SeatsAvailable:    seats,
		Status:            domain.OfferStatusOpen,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	if s.indexer != nil {
		if err := s.indexer.Add(ctx, offer); err != nil {
			s.logger.WarnContext(ctx, "failed to index offer", "offer_id", offer.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "offer published", "offer_id", offer.ID, "driver_id", offer.DriverID, "seats", seats)
	return offer, nil
}

// ListMine returns the caller's offers, newest first.
func (s *OfferService) ListMine(ctx context.Context, driverID string) ([]*domain.Offer, error) {
	if driverID == "" {
		return nil, ErrMissingCaller
	}
	offers, err := s.offers.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []*domain.Offer{}
	}
	return offers, nil
}
