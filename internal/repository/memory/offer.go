package memory

import (
	"context"
	"sort"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/repository"
)

// OfferRepository is an in-memory implementation of repository.OfferRepository.
type OfferRepository struct {
	v view
}

func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	return r.v.do(func(d *dataset) error {
		if _, ok := d.offers[offer.ID]; ok {
			return repository.ErrDuplicate
		}
		d.offers[offer.ID] = *offer
		return nil
	})
}

func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	var out *domain.Offer
	err := r.v.do(func(d *dataset) error {
		o, ok := d.offers[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *OfferRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Offer, error) {
	var out []*domain.Offer
	err := r.v.do(func(d *dataset) error {
		for _, id := range ids {
			if o, ok := d.offers[id]; ok {
				o := o
				out = append(out, &o)
			}
		}
		return nil
	})
	return out, err
}

func (r *OfferRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Offer, error) {
	var out []*domain.Offer
	err := r.v.do(func(d *dataset) error {
		for _, o := range d.offers {
			if o.DriverID == driverID {
				o := o
				out = append(out, &o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *OfferRepository) ListOpen(ctx context.Context) ([]*domain.Offer, error) {
	var out []*domain.Offer
	err := r.v.do(func(d *dataset) error {
		for _, o := range d.offers {
			if o.Status == domain.OfferStatusOpen {
				o := o
				out = append(out, &o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *OfferRepository) FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Offer, error) {
	type candidate struct {
		offer    *domain.Offer
		distance float64
	}

	var found []candidate
	err := r.v.do(func(d *dataset) error {
		for _, o := range d.offers {
			if o.Status != domain.OfferStatusOpen || o.SeatsAvailable < q.MinSeats {
				continue
			}
			od := geo.Haversine(q.Origin.Lat, q.Origin.Lng, o.Origin.Lat, o.Origin.Lng)
			if od > q.OriginRadiusMeters {
				continue
			}
			if !geo.Within(q.Destination.Lat, q.Destination.Lng, o.Destination.Lat, o.Destination.Lng, q.DestinationRadiusMeters) {
				continue
			}
			o := o
			found = append(found, candidate{offer: &o, distance: od})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].offer.ID < found[j].offer.ID
	})
	if q.Limit > 0 && len(found) > q.Limit {
		found = found[:q.Limit]
	}

	out := make([]*domain.Offer, len(found))
	for i, c := range found {
		out[i] = c.offer
	}
	return out, nil
}

// Reserve takes seats from an open offer and closes it on the last seat.
func (r *OfferRepository) Reserve(ctx context.Context, id string, units int) (int, error) {
	var remaining int
	err := r.v.do(func(d *dataset) error {
		o, ok := d.offers[id]
		if !ok {
			return repository.ErrNotFound
		}
		if units <= 0 || o.Status != domain.OfferStatusOpen || o.SeatsAvailable < units {
			return repository.ErrInsufficientCapacity
		}
		o.SeatsAvailable -= units
		if o.SeatsAvailable == 0 {
			o.Status = domain.OfferStatusClosed
		}
		d.offers[id] = o
		remaining = o.SeatsAvailable
		return nil
	})
	return remaining, err
}
