package memory

import (
	"context"
	"sort"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// RequestRepository is an in-memory implementation of repository.RequestRepository.
type RequestRepository struct {
	v view
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	return r.v.do(func(d *dataset) error {
		if _, ok := d.requests[req.ID]; ok {
			return repository.ErrDuplicate
		}
		d.requests[req.ID] = *req
		return nil
	})
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	var out *domain.Request
	err := r.v.do(func(d *dataset) error {
		req, ok := d.requests[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

func (r *RequestRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Request, error) {
	var out []*domain.Request
	err := r.v.do(func(d *dataset) error {
		for _, req := range d.requests {
			if req.RiderID == riderID {
				req := req
				out = append(out, &req)
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

func (r *RequestRepository) TransitionStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	return r.v.do(func(d *dataset) error {
		req, ok := d.requests[id]
		if !ok {
			return repository.ErrNotFound
		}
		if req.Status != from {
			return repository.ErrStaleState
		}
		req.Status = to
		d.requests[id] = req
		return nil
	})
}
