package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const matchColumns = `id, offer_id, request_id, score, status, created_at, updated_at`

// MatchRepository is a PostgreSQL implementation of repository.MatchRepository.
type MatchRepository struct {
	q Querier
}

// NewMatchRepository creates a new PostgreSQL match repository.
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{q: db}
}

// NewMatchRepositoryWithTx creates a match repository using a transaction.
func NewMatchRepositoryWithTx(tx *sql.Tx) *MatchRepository {
	return &MatchRepository{q: tx}
}

// Create inserts a match unless one already exists for the same offer and
// request. The conflict clause keeps an enclosing transaction usable.
func (r *MatchRepository) Create(ctx context.Context, match *domain.Match) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (offer_id, request_id) DO NOTHING
	`

	res, err := r.q.ExecContext(ctx, query,
		match.ID,
		match.OfferID,
		match.RequestID,
		match.Score,
		match.Status,
		match.CreatedAt,
		match.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrDuplicate
	}
	return nil
}

// GetByID retrieves a match by ID.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByPair retrieves the match for an offer and request pair.
func (r *MatchRepository) GetByPair(ctx context.Context, offerID, requestID string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE offer_id = $1 AND request_id = $2`
	return r.get(ctx, query, offerID, requestID)
}

// ListByRequest retrieves every match of a request, best score first.
func (r *MatchRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE request_id = $1 ORDER BY score ASC, id ASC`

	rows, err := r.q.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// TransitionStatus moves a match from one status to another.
func (r *MatchRepository) TransitionStatus(ctx context.Context, id string, from, to domain.MatchStatus) error {
	query := `UPDATE matches SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	return transition(ctx, r.q, "matches", query, id, from, to, time.Now().UTC())
}

// ExpireProposed marks stale proposals as expired.
func (r *MatchRepository) ExpireProposed(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE matches
		SET status = $1, updated_at = $2
		WHERE status = $3 AND created_at < $4
	`

	res, err := r.q.ExecContext(ctx, query,
		domain.MatchStatusExpired,
		time.Now().UTC(),
		domain.MatchStatusProposed,
		before,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MatchRepository) get(ctx context.Context, query string, args ...any) (*domain.Match, error) {
	m, err := scanMatch(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func scanMatch(row rowScanner) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(
		&m.ID,
		&m.OfferID,
		&m.RequestID,
		&m.Score,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
