package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// MatchRepository defines the persistence operations for matches.
type MatchRepository interface {
	// Create persists a new match. Returns ErrDuplicate if a match for the
	// same offer and request already exists.
	Create(ctx context.Context, match *domain.Match) error

	// GetByID retrieves a match by ID.
	GetByID(ctx context.Context, id string) (*domain.Match, error)

	// GetByPair retrieves the match for an offer and request pair.
	GetByPair(ctx context.Context, offerID, requestID string) (*domain.Match, error)

	// ListByRequest retrieves every match of a request.
	ListByRequest(ctx context.Context, requestID string) ([]*domain.Match, error)

	// TransitionStatus moves a match from one status to another.
	// Returns ErrStaleState if the match is not in the from status.
	TransitionStatus(ctx context.Context, id string, from, to domain.MatchStatus) error

	// ExpireProposed marks proposed matches created before the cutoff as
	// expired and returns how many were changed.
	ExpireProposed(ctx context.Context, before time.Time) (int64, error)
}
