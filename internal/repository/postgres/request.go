package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const requestColumns = `id, rider_id, origin_lat, origin_lng, origin_label,
		destination_lat, destination_lng, destination_label, pickup_time,
		time_window_minutes, seats_needed, mode, status, created_at`

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepository creates a new PostgreSQL request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{q: db}
}

// NewRequestRepositoryWithTx creates a request repository using a transaction.
func NewRequestRepositoryWithTx(tx *sql.Tx) *RequestRepository {
	return &RequestRepository{q: tx}
}

// Create persists a new request.
func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.RiderID,
		req.Origin.Lat,
		req.Origin.Lng,
		req.Origin.Label,
		req.Destination.Lat,
		req.Destination.Lng,
		req.Destination.Label,
		req.PickupTime,
		req.TimeWindowMinutes,
		req.SeatsNeeded,
		req.Mode,
		req.Status,
		req.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`

	req, err := scanRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// ListByRider retrieves a rider's requests, newest first.
func (r *RequestRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE rider_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// TransitionStatus moves a request from one status to another.
func (r *RequestRepository) TransitionStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	query := `UPDATE requests SET status = $3 WHERE id = $1 AND status = $2`
	return transition(ctx, r.q, "requests", query, id, from, to)
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var req domain.Request
	err := row.Scan(
		&req.ID,
		&req.RiderID,
		&req.Origin.Lat,
		&req.Origin.Lng,
		&req.Origin.Label,
		&req.Destination.Lat,
		&req.Destination.Lng,
		&req.Destination.Label,
		&req.PickupTime,
		&req.TimeWindowMinutes,
		&req.SeatsNeeded,
		&req.Mode,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
