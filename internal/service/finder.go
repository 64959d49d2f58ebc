package service

import (
	"context"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// CandidateSource answers geospatial candidate queries. Both the offer
// repositories and IndexedCandidates satisfy it.
type CandidateSource interface {
	FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Offer, error)
}

// MatchingDefaults holds the search parameters used when a caller omits them.
type MatchingDefaults struct {
	OriginRadiusMeters      int
	DestinationRadiusMeters int
	ResultLimit             int
	OverFetch               int
}

// DefaultMatching returns the stock search parameters.
func DefaultMatching() MatchingDefaults {
	return MatchingDefaults{
		OriginRadiusMeters:      3000,
		DestinationRadiusMeters: 3500,
		ResultLimit:             10,
		OverFetch:               50,
	}
}

// FindOptions carries optional per-search overrides.
type FindOptions struct {
	OriginRadiusMeters      *int
	DestinationRadiusMeters *int
}

// CandidateFinder loads a request and fetches the open offers near both of
// its endpoints with enough seats. It never writes.
type CandidateFinder struct {
	requests repository.RequestRepository
	source   CandidateSource
	defaults MatchingDefaults
}

// NewCandidateFinder creates a new CandidateFinder.
func NewCandidateFinder(requests repository.RequestRepository, source CandidateSource, defaults MatchingDefaults) *CandidateFinder {
	return &CandidateFinder{requests: requests, source: source, defaults: defaults}
}

// Find returns the request and its candidates. An unknown request yields a
// nil request and no candidates without error.
func (f *CandidateFinder) Find(ctx context.Context, requestID string, opts FindOptions) (*domain.Request, []*domain.Offer, error) {
	if requestID == "" {
		return nil, nil, ErrInvalidRequestID
	}
	originRadius, err := radiusOrDefault(opts.OriginRadiusMeters, f.defaults.OriginRadiusMeters)
	if err != nil {
		return nil, nil, err
	}
	destRadius, err := radiusOrDefault(opts.DestinationRadiusMeters, f.defaults.DestinationRadiusMeters)
	if err != nil {
		return nil, nil, err
	}

	req, err := f.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	offers, err := f.source.FindCandidates(ctx, repository.CandidateQuery{
		Origin:                  req.Origin,
		Destination:             req.Destination,
		OriginRadiusMeters:      float64(originRadius),
		DestinationRadiusMeters: float64(destRadius),
		MinSeats:                req.SeatsNeeded,
		Limit:                   f.defaults.OverFetch,
	})
	if err != nil {
		return nil, nil, err
	}
	return req, offers, nil
}
