package memory

import (
	"context"
	"sort"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// MatchRepository is an in-memory implementation of repository.MatchRepository.
type MatchRepository struct {
	v view
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	return r.v.do(func(d *dataset) error {
		if _, ok := d.matches[m.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, existing := range d.matches {
			if existing.OfferID == m.OfferID && existing.RequestID == m.RequestID {
				return repository.ErrDuplicate
			}
		}
		d.matches[m.ID] = *m
		return nil
	})
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var out *domain.Match
	err := r.v.do(func(d *dataset) error {
		m, ok := d.matches[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *MatchRepository) GetByPair(ctx context.Context, offerID, requestID string) (*domain.Match, error) {
	var out *domain.Match
	err := r.v.do(func(d *dataset) error {
		for _, m := range d.matches {
			if m.OfferID == offerID && m.RequestID == requestID {
				out = &m
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *MatchRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.Match, error) {
	var out []*domain.Match
	err := r.v.do(func(d *dataset) error {
		for _, m := range d.matches {
			if m.RequestID == requestID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *MatchRepository) TransitionStatus(ctx context.Context, id string, from, to domain.MatchStatus) error {
	return r.v.do(func(d *dataset) error {
		m, ok := d.matches[id]
		if !ok {
			return repository.ErrNotFound
		}
		if m.Status != from {
			return repository.ErrStaleState
		}
		m.Status = to
		m.UpdatedAt = time.Now().UTC()
		d.matches[id] = m
		return nil
	})
}

func (r *MatchRepository) ExpireProposed(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.v.do(func(d *dataset) error {
		now := time.Now().UTC()
		for id, m := range d.matches {
			if m.Status == domain.MatchStatusProposed && m.CreatedAt.Before(before) {
				m.Status = domain.MatchStatusExpired
				m.UpdatedAt = now
				d.matches[id] = m
				n++
			}
		}
		return nil
	})
	return n, err
}
