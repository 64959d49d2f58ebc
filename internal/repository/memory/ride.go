package memory

import (
	"context"
	"sort"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/repository"
)

// RideRepository is an in-memory implementation of repository.RideRepository.
type RideRepository struct {
	v view
}

func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	return r.v.do(func(d *dataset) error {
		if _, ok := d.rides[ride.ID]; ok {
			return repository.ErrDuplicate
		}
		d.rides[ride.ID] = *ride
		return nil
	})
}

func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	var out *domain.Ride
	err := r.v.do(func(d *dataset) error {
		ride, ok := d.rides[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &ride
		return nil
	})
	return out, err
}

func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	var out []*domain.Ride
	err := r.v.do(func(d *dataset) error {
		for _, ride := range d.rides {
			if ride.DriverID == driverID {
				ride := ride
				out = append(out, &ride)
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

func (r *RideRepository) Search(ctx context.Context, q repository.RideSearch) ([]*domain.Ride, error) {
	var out []*domain.Ride
	err := r.v.do(func(d *dataset) error {
		for _, ride := range d.rides {
			if ride.Status != domain.RideStatusActive || ride.SeatsAvailable <= 0 {
				continue
			}
			if ride.DepartAt.Before(q.DepartAfter) {
				continue
			}
			if !geo.Within(q.Origin.Lat, q.Origin.Lng, ride.Origin.Lat, ride.Origin.Lng, q.RadiusMeters) ||
				!geo.Within(q.Destination.Lat, q.Destination.Lng, ride.Destination.Lat, ride.Destination.Lng, q.RadiusMeters) {
				continue
			}
			ride := ride
			out = append(out, &ride)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepartAt.Equal(out[j].DepartAt) {
			return out[i].DepartAt.Before(out[j].DepartAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, err
}

// Reserve takes seats from an active ride. Rides stay active at zero.
func (r *RideRepository) Reserve(ctx context.Context, id string, units int) (int, error) {
	var remaining int
	err := r.v.do(func(d *dataset) error {
		ride, ok := d.rides[id]
		if !ok {
			return repository.ErrNotFound
		}
		if units <= 0 || ride.Status != domain.RideStatusActive || ride.SeatsAvailable < units {
			return repository.ErrInsufficientCapacity
		}
		ride.SeatsAvailable -= units
		d.rides[id] = ride
		remaining = ride.SeatsAvailable
		return nil
	})
	return remaining, err
}
