package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const offerColumns = `id, driver_id, origin_lat, origin_lng, origin_label,
		destination_lat, destination_lng, destination_label, pickup_time,
		time_window_minutes, seats_total, seats_available, status, created_at`

var offerCapacity = capacitySpec{
	table:        "offers",
	openStatus:   string(domain.OfferStatusOpen),
	closedStatus: string(domain.OfferStatusClosed),
}

// OfferRepository is a PostgreSQL implementation of repository.OfferRepository.
type OfferRepository struct {
	q Querier
}

// NewOfferRepository creates a new PostgreSQL offer repository.
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{q: db}
}

// NewOfferRepositoryWithTx creates an offer repository using a transaction.
func NewOfferRepositoryWithTx(tx *sql.Tx) *OfferRepository {
	return &OfferRepository{q: tx}
}

// Create persists a new offer.
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		offer.ID,
		offer.DriverID,
		offer.Origin.Lat,
		offer.Origin.Lng,
		offer.Origin.Label,
		offer.Destination.Lat,
		offer.Destination.Lng,
		offer.Destination.Label,
		offer.PickupTime,
		offer.TimeWindowMinutes,
		offer.SeatsTotal,
		offer.SeatsAvailable,
		offer.Status,
		offer.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves an offer by ID.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return offer, nil
}

// GetByIDs retrieves the offers with the given IDs.
func (r *OfferRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ANY($1)`
	return r.list(ctx, query, pq.Array(ids))
}

// ListByDriver retrieves a driver's offers, newest first.
func (r *OfferRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

// ListOpen retrieves every open offer.
func (r *OfferRepository) ListOpen(ctx context.Context) ([]*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE status = $1 ORDER BY id`
	return r.list(ctx, query, domain.OfferStatusOpen)
}

// FindCandidates returns open offers near both endpoints of the query,
// nearest origin first.
func (r *OfferRepository) FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Offer, error) {
	originDist := haversineSQL("origin_lat", "origin_lng", 1, 2)
	destDist := haversineSQL("destination_lat", "destination_lng", 3, 4)

	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE status = $5
		  AND seats_available >= $6
		  AND ` + originDist + ` <= $7
		  AND ` + destDist + ` <= $8
		ORDER BY ` + originDist + ` ASC, id ASC
		LIMIT $9
	`

	return r.list(ctx, query,
		q.Origin.Lat,
		q.Origin.Lng,
		q.Destination.Lat,
		q.Destination.Lng,
		domain.OfferStatusOpen,
		q.MinSeats,
		q.OriginRadiusMeters,
		q.DestinationRadiusMeters,
		q.Limit,
	)
}

// Reserve atomically takes seats from an open offer, closing it when the
// last seat is taken.
func (r *OfferRepository) Reserve(ctx context.Context, id string, units int) (int, error) {
	return reserveCapacity(ctx, r.q, offerCapacity, id, units)
}

func (r *OfferRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Offer, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func scanOffer(row rowScanner) (*domain.Offer, error) {
	var offer domain.Offer
	err := row.Scan(
		&offer.ID,
		&offer.DriverID,
		&offer.Origin.Lat,
		&offer.Origin.Lng,
		&offer.Origin.Label,
		&offer.Destination.Lat,
		&offer.Destination.Lng,
		&offer.Destination.Label,
		&offer.PickupTime,
		&offer.TimeWindowMinutes,
		&offer.SeatsTotal,
		&offer.SeatsAvailable,
		&offer.Status,
		&offer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}
