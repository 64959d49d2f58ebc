package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// MatchLedger records proposed pairings. Proposing is insert-if-absent on
// the (offer, request) pair: an existing match keeps its status and score.
type MatchLedger struct {
	matches repository.MatchRepository
	offers  repository.OfferRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewMatchLedger creates a new MatchLedger.
func NewMatchLedger(matches repository.MatchRepository, offers repository.OfferRepository, logger *slog.Logger) *MatchLedger {
	return &MatchLedger{matches: matches, offers: offers, logger: logger, now: time.Now}
}

// Propose inserts a proposed match for every scored offer not yet paired
// with req and returns how many were created.
func (l *MatchLedger) Propose(ctx context.Context, req *domain.Request, scored []ScoredOffer) (int, error) {
	created := 0
	for _, c := range scored {
		now := l.now().UTC()
		m := &domain.Match{
			ID:        uuid.New().String(),
			OfferID:   c.Offer.ID,
			RequestID: req.ID,
			Score:     c.Score,
			Status:    domain.MatchStatusProposed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := l.matches.Create(ctx, m)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		l.logger.InfoContext(ctx, "matches proposed", "request_id", req.ID, "created", created, "candidates", len(scored))
	}
	return created, nil
}

// Details returns every match of req populated with its offer and the
// request, best score first.
func (l *MatchLedger) Details(ctx context.Context, req *domain.Request) ([]*domain.MatchDetail, error) {
	matches, err := l.matches.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []*domain.MatchDetail{}, nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.OfferID)
	}
	offers, err := l.offers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}

	details := make([]*domain.MatchDetail, 0, len(matches))
	for _, m := range matches {
		details = append(details, &domain.MatchDetail{Match: m, Offer: byID[m.OfferID], Request: req})
	}
	sort.SliceStable(details, func(i, j int) bool {
		a, b := details[i].Match, details[j].Match
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.ID < b.ID
	})
	return details, nil
}
