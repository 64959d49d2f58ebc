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

// RequestService creates, lists and cancels rider requests.
type RequestService struct {
	requests repository.RequestRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewRequestService creates a new RequestService.
func NewRequestService(requests repository.RequestRepository, notifier Notifier, logger *slog.Logger) *RequestService {
	return &RequestService{requests: requests, notifier: notifier, logger: logger, now: time.Now}
}

// CreateTripRequest contains the parameters for a rider request.
// Nil or empty optional fields take their defaults.
type CreateTripRequest struct {
	RiderID           string
	Origin            domain.Location
	Destination       domain.Location
	PickupTime        time.Time
	TimeWindowMinutes *int
	SeatsNeeded       *int
	Mode              domain.TripMode
}

// Create validates and stores a new open request.
func (s *RequestService) Create(ctx context.Context, in CreateTripRequest) (*domain.Request, error) {
	if in.RiderID == "" {
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
	seats := domain.DefaultSeatsNeeded
	if in.SeatsNeeded != nil {
		seats = *in.SeatsNeeded
	}
	if seats < 1 || seats > domain.MaxSeatsNeeded {
		return nil, ErrInvalidSeatsNeeded
	}
	mode := in.Mode
	if mode == "" {
		mode = domain.TripModePool
	}
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	req := &domain.Request{
		ID:                uuid.New().String(),
		RiderID:           in.RiderID,
		Origin:            in.Origin,
		Destination:       in.Destination,
		PickupTime:        in.PickupTime.UTC(),
		TimeWindowMinutes: window,
		SeatsNeeded:       seats,
		Mode:              mode,
		Status:            domain.RequestStatusOpen,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListMine returns the caller's requests, newest first.
func (s *RequestService) ListMine(ctx context.Context, riderID string) ([]*domain.Request, error) {
	if riderID == "" {
		return nil, ErrMissingCaller
	}
	reqs, err := s.requests.ListByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []*domain.Request{}
	}
	return reqs, nil
}

// Cancel moves the caller's open request to cancelled. Cancelling a
// cancelled request is a no-op; a matched request cannot be cancelled.
func (s *RequestService) Cancel(ctx context.Context, requestID, callerID string) (*domain.Request, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	if callerID == "" {
		return nil, ErrMissingCaller
	}

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RiderID != callerID {
		return nil, domain.AuthorizationError{Resource: "request", Action: "cancel"}
	}
	if req.Status == domain.RequestStatusCancelled {
		return req, nil
	}

	err = s.requests.TransitionStatus(ctx, requestID, domain.RequestStatusOpen, domain.RequestStatusCancelled)
	if errors.Is(err, repository.ErrStaleState) {
		current, getErr := s.get(ctx, requestID)
		if getErr == nil && current.Status == domain.RequestStatusCancelled {
			return current, nil
		}
		return nil, domain.ConflictError{Resource: "request", Msg: "request is already matched"}
	}
	if err != nil {
		return nil, err
	}

	req.Status = domain.RequestStatusCancelled
	s.notifier.Notify(ctx, events.RiderChannel(req.RiderID), events.RequestCancelled, map[string]any{"requestId": req.ID})
	return req, nil
}

func (s *RequestService) get(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "request", ID: id}
		}
		return nil, err
	}
	return req, nil
}
