package repository

import (
	"context"

	"carpool/internal/domain"
)

// RequestRepository defines the persistence operations for trip requests.
type RequestRepository interface {
	// Create persists a new request.
	Create(ctx context.Context, req *domain.Request) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.Request, error)

	// ListByRider retrieves a rider's requests, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Request, error)

	// TransitionStatus moves a request from one status to another.
	// Returns ErrStaleState if the request is not in the from status.
	TransitionStatus(ctx context.Context, id string, from, to domain.RequestStatus) error
}
