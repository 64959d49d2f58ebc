package memory

import (
	"context"
	"sort"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// BookingRepository is an in-memory implementation of repository.BookingRepository.
type BookingRepository struct {
	v view
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.v.do(func(d *dataset) error {
		if _, ok := d.bookings[b.ID]; ok {
			return repository.ErrDuplicate
		}
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *BookingRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Booking, error) {
	var out []*domain.Booking
	err := r.v.do(func(d *dataset) error {
		for _, b := range d.bookings {
			if b.RiderID == riderID {
				b := b
				out = append(out, &b)
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
