package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"carpool/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
	repos
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a store whose repositories run directly on db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: dbRepos(db)}
}

// WithinTx runs fn inside a database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repos) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txRepos(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

type repos struct {
	offers   *OfferRepository
	requests *RequestRepository
	matches  *MatchRepository
	rides    *RideRepository
	bookings *BookingRepository
}

func dbRepos(db *sql.DB) repos {
	return repos{
		offers:   NewOfferRepository(db),
		requests: NewRequestRepository(db),
		matches:  NewMatchRepository(db),
		rides:    NewRideRepository(db),
		bookings: NewBookingRepository(db),
	}
}

func txRepos(tx *sql.Tx) repos {
	return repos{
		offers:   NewOfferRepositoryWithTx(tx),
		requests: NewRequestRepositoryWithTx(tx),
		matches:  NewMatchRepositoryWithTx(tx),
		rides:    NewRideRepositoryWithTx(tx),
		bookings: NewBookingRepositoryWithTx(tx),
	}
}

func (r repos) Offers() repository.OfferRepository     { return r.offers }
func (r repos) Requests() repository.RequestRepository { return r.requests }
func (r repos) Matches() repository.MatchRepository    { return r.matches }
func (r repos) Rides() repository.RideRepository       { return r.rides }
func (r repos) Bookings() repository.BookingRepository { return r.bookings }
