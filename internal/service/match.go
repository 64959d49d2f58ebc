package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carpool/internal/domain"
	"carpool/internal/events"
	"carpool/internal/observability"
	"carpool/internal/repository"
)

// errMatchResolved aborts an accept whose match left the proposed state
// while the transaction was running.
var errMatchResolved = errors.New("match already resolved")

// OfferIndexer keeps an external offer index in step with offer status.
type OfferIndexer interface {
	Add(ctx context.Context, offer *domain.Offer) error
	Remove(ctx context.Context, offerID string) error
}

// MatchService runs searches and match lifecycle transitions.
type MatchService struct {
	store     repository.Store
	finder    *CandidateFinder
	ledger    *MatchLedger
	allocator *CapacityAllocator
	notifier  Notifier
	indexer   OfferIndexer
	defaults  MatchingDefaults
	logger    *slog.Logger
}

// NewMatchService creates a new MatchService. indexer may be nil.
func NewMatchService(
	store repository.Store,
	source CandidateSource,
	allocator *CapacityAllocator,
	notifier Notifier,
	indexer OfferIndexer,
	defaults MatchingDefaults,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		store:     store,
		finder:    NewCandidateFinder(store.Requests(), source, defaults),
		ledger:    NewMatchLedger(store.Matches(), store.Offers(), logger),
		allocator: allocator,
		notifier:  notifier,
		indexer:   indexer,
		defaults:  defaults,
		logger:    logger,
	}
}

// FindMatchesRequest contains the parameters for a match search.
type FindMatchesRequest struct {
	RequestID string
	FindOptions
}

// FindMatches proposes matches for an open request and returns every match
// the request has. Searching again is free of side effects on existing
// matches. An unknown request yields no matches; a request that is no
// longer open yields its existing matches without a new search.
func (s *MatchService) FindMatches(ctx context.Context, in FindMatchesRequest) ([]*domain.MatchDetail, error) {
	start := time.Now()
	defer func() { observability.FindLatency.Observe(time.Since(start).Seconds()) }()

	req, offers, err := s.finder.Find(ctx, in.RequestID, in.FindOptions)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return []*domain.MatchDetail{}, nil
	}

	if req.Status == domain.RequestStatusOpen {
		scored := ScoreCandidates(req, offers, s.defaults.ResultLimit)
		created, err := s.ledger.Propose(ctx, req, scored)
		if err != nil {
			return nil, err
		}
		observability.MatchesProposed.Add(float64(created))

		s.notifier.Notify(ctx, events.RiderChannel(req.RiderID), events.MatchesUpdated, map[string]any{
			"requestId": req.ID,
			"created":   created,
		})
	}

	return s.ledger.Details(ctx, req)
}

// AcceptMatch consumes the request's seats from the match's offer and marks
// the match accepted and the request matched, all or nothing. Only the
// request's rider may accept. Accepting a match that is no longer proposed
// returns it unchanged.
func (s *MatchService) AcceptMatch(ctx context.Context, matchID, callerID string) (*domain.MatchDetail, error) {
	if matchID == "" {
		return nil, ErrInvalidMatchID
	}
	if callerID == "" {
		return nil, ErrMissingCaller
	}

	detail, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	m, req := detail.Match, detail.Request

	if req.RiderID != callerID {
		return nil, domain.AuthorizationError{Resource: "match", Action: "accept"}
	}
	if m.Terminal() {
		return detail, nil
	}
	if req.Status != domain.RequestStatusOpen {
		return nil, domain.ConflictError{Resource: "request", Msg: "request is no longer open"}
	}

	var remaining int
	err = s.allocator.Allocate(ctx, Claim{
		Path:       "accept",
		Resource:   "offer",
		ResourceID: m.OfferID,
		Units:      req.SeatsNeeded,
		Pool:       func(tx repository.Repos) repository.CapacityPool { return tx.Offers() },
	}, func(tx repository.Repos, left int) error {
		remaining = left
		err := tx.Matches().TransitionStatus(ctx, m.ID, domain.MatchStatusProposed, domain.MatchStatusAccepted)
		if errors.Is(err, repository.ErrStaleState) {
			return errMatchResolved
		}
		if err != nil {
			return err
		}

		err = tx.Requests().TransitionStatus(ctx, req.ID, domain.RequestStatusOpen, domain.RequestStatusMatched)
		if errors.Is(err, repository.ErrStaleState) {
			return domain.ConflictError{Resource: "request", Msg: "request is no longer open"}
		}
		return err
	})

	switch {
	case errors.Is(err, errMatchResolved):
		return s.load(ctx, matchID)
	case domain.IsCapacityExhausted(err):
		// A concurrent accept of this same match may have taken the last seats.
		if current, loadErr := s.load(ctx, matchID); loadErr == nil && current.Match.Terminal() {
			return current, nil
		}
		return nil, err
	case err != nil:
		return nil, err
	}

	if remaining == 0 && s.indexer != nil {
		if err := s.indexer.Remove(ctx, m.OfferID); err != nil {
			s.logger.WarnContext(ctx, "failed to remove closed offer from index", "offer_id", m.OfferID, "error", err)
		}
	}

	accepted, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match accepted",
		"match_id", m.ID,
		"offer_id", m.OfferID,
		"request_id", req.ID,
		"seats_remaining", remaining,
	)

	payload := map[string]any{
		"matchId":   m.ID,
		"offerId":   m.OfferID,
		"requestId": req.ID,
	}
	s.notifier.Notify(ctx, events.DriverChannel(accepted.Offer.DriverID), events.MatchAccepted, payload)
	s.notifier.Notify(ctx, events.RiderChannel(req.RiderID), events.MatchAccepted, payload)

	return accepted, nil
}

// RejectMatch moves a proposed match to rejected. Either the request's rider
// or the offer's driver may reject. Rejecting a rejected match is a no-op.
func (s *MatchService) RejectMatch(ctx context.Context, matchID, callerID string) (*domain.MatchDetail, error) {
	if matchID == "" {
		return nil, ErrInvalidMatchID
	}
	if callerID == "" {
		return nil, ErrMissingCaller
	}

	detail, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	riderID, driverID := detail.Request.RiderID, detail.Offer.DriverID
	if callerID != riderID && callerID != driverID {
		return nil, domain.AuthorizationError{Resource: "match", Action: "reject"}
	}

	err = s.store.Matches().TransitionStatus(ctx, matchID, domain.MatchStatusProposed, domain.MatchStatusRejected)
	if err != nil && !errors.Is(err, repository.ErrStaleState) {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "match", ID: matchID}
		}
		return nil, err
	}

	current, loadErr := s.load(ctx, matchID)
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		// Lost against another transition.
		if current.Match.Status == domain.MatchStatusRejected {
			return current, nil
		}
		return nil, domain.ConflictError{Resource: "match", Msg: "match is already " + string(current.Match.Status)}
	}

	counterpart := events.DriverChannel(driverID)
	if callerID == driverID {
		counterpart = events.RiderChannel(riderID)
	}
	s.notifier.Notify(ctx, counterpart, events.MatchRejected, map[string]any{
		"matchId":   matchID,
		"offerId":   current.Match.OfferID,
		"requestId": current.Match.RequestID,
	})

	return current, nil
}

// load reads a match with its offer and request.
func (s *MatchService) load(ctx context.Context, matchID string) (*domain.MatchDetail, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "match", ID: matchID}
		}
		return nil, err
	}
	req, err := s.store.Requests().GetByID(ctx, m.RequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "request", ID: m.RequestID}
		}
		return nil, err
	}
	offer, err := s.store.Offers().GetByID(ctx, m.OfferID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "offer", ID: m.OfferID}
		}
		return nil, err
	}
	return &domain.MatchDetail{Match: m, Offer: offer, Request: req}, nil
}
