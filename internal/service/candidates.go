package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// IndexedCandidates answers candidate queries from the Redis offer index
// and confirms every hit against the store, which stays authoritative for
// status and seats. It is also the offer indexer, so it knows when a write
// was missed. An index that may be missing open offers is rebuilt from the
// store before use; while that fails, queries go to the store directly.
type IndexedCandidates struct {
	index  redis.OfferIndexInterface
	offers repository.OfferRepository
	logger *slog.Logger
	stale  atomic.Bool
}

// NewIndexedCandidates creates a new IndexedCandidates.
func NewIndexedCandidates(index redis.OfferIndexInterface, offers repository.OfferRepository, logger *slog.Logger) *IndexedCandidates {
	return &IndexedCandidates{index: index, offers: offers, logger: logger}
}

// Add indexes an offer. A failure marks the index incomplete.
func (c *IndexedCandidates) Add(ctx context.Context, offer *domain.Offer) error {
	if err := c.index.Add(ctx, offer); err != nil {
		c.markStale(ctx)
		return err
	}
	return nil
}

// Remove drops an offer from the index. A leftover entry is pruned on the
// next query that returns it.
func (c *IndexedCandidates) Remove(ctx context.Context, offerID string) error {
	return c.index.Remove(ctx, offerID)
}

// Rebuild indexes every open offer in the store and marks the index complete.
func (c *IndexedCandidates) Rebuild(ctx context.Context) error {
	// Cleared first so an Add failing during the rebuild keeps it stale.
	c.stale.Store(false)

	offers, err := c.offers.ListOpen(ctx)
	if err != nil {
		c.stale.Store(true)
		return err
	}
	for _, o := range offers {
		if err := c.index.Add(ctx, o); err != nil {
			c.stale.Store(true)
			return err
		}
	}
	if err := c.index.SetComplete(ctx, true); err != nil {
		c.stale.Store(true)
		return err
	}

	c.logger.InfoContext(ctx, "offer index rebuilt", "offers", len(offers))
	return nil
}

func (c *IndexedCandidates) FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Offer, error) {
	if !c.ready(ctx) {
		return c.offers.FindCandidates(ctx, q)
	}

	ids, err := c.index.Nearby(ctx, q.Origin, q.Destination, q.OriginRadiusMeters, q.DestinationRadiusMeters)
	if err != nil {
		c.logger.WarnContext(ctx, "offer index query failed, using store", "error", err)
		return c.offers.FindCandidates(ctx, q)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	loaded, err := c.offers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Offer, len(loaded))
	for _, o := range loaded {
		byID[o.ID] = o
	}

	out := make([]*domain.Offer, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok || o.Status != domain.OfferStatusOpen {
			// Stale index entry.
			if err := c.index.Remove(ctx, id); err != nil {
				c.logger.WarnContext(ctx, "failed to prune offer index", "offer_id", id, "error", err)
			}
			continue
		}
		if o.SeatsAvailable < q.MinSeats {
			continue
		}
		if !geo.Within(q.Origin.Lat, q.Origin.Lng, o.Origin.Lat, o.Origin.Lng, q.OriginRadiusMeters) ||
			!geo.Within(q.Destination.Lat, q.Destination.Lng, o.Destination.Lat, o.Destination.Lng, q.DestinationRadiusMeters) {
			continue
		}
		out = append(out, o)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// ready reports whether the index can be trusted to hold every open offer,
// rebuilding it when it cannot.
func (c *IndexedCandidates) ready(ctx context.Context) bool {
	if !c.stale.Load() {
		complete, err := c.index.Complete(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "offer index unavailable, using store", "error", err)
			return false
		}
		if complete {
			return true
		}
	}
	if err := c.Rebuild(ctx); err != nil {
		c.logger.WarnContext(ctx, "offer index rebuild failed, using store", "error", err)
		return false
	}
	return true
}

func (c *IndexedCandidates) markStale(ctx context.Context) {
	c.stale.Store(true)
	if err := c.index.SetComplete(ctx, false); err != nil {
		c.logger.WarnContext(ctx, "failed to clear offer index marker", "error", err)
	}
}
