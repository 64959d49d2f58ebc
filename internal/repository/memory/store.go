// Package memory is an in-process entity store. It backs local runs without
// PostgreSQL and the service tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

type dataset struct {
	offers   map[string]domain.Offer
	requests map[string]domain.Request
	matches  map[string]domain.Match
	rides    map[string]domain.Ride
	bookings map[string]domain.Booking
}

func newDataset() *dataset {
	return &dataset{
		offers:   make(map[string]domain.Offer),
		requests: make(map[string]domain.Request),
		matches:  make(map[string]domain.Match),
		rides:    make(map[string]domain.Ride),
		bookings: make(map[string]domain.Booking),
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		offers:   maps.Clone(d.offers),
		requests: maps.Clone(d.requests),
		matches:  maps.Clone(d.matches),
		rides:    maps.Clone(d.rides),
		bookings: maps.Clone(d.bookings),
	}
}

// Store is an in-memory implementation of repository.Store. Every call is
// serialized on one mutex; WithinTx holds it for the whole unit of work and
// publishes the working copy only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) Offers() repository.OfferRepository     { return &OfferRepository{view{s: s}} }
func (s *Store) Requests() repository.RequestRepository { return &RequestRepository{view{s: s}} }
func (s *Store) Matches() repository.MatchRepository    { return &MatchRepository{view{s: s}} }
func (s *Store) Rides() repository.RideRepository       { return &RideRepository{view{s: s}} }
func (s *Store) Bookings() repository.BookingRepository { return &BookingRepository{view{s: s}} }

// WithinTx runs fn against a private copy of the data.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(txRepos{view{s: s, tx: work}}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// view resolves the dataset a repository operates on: the live data under
// the store lock, or a transaction's working copy whose lock is already held.
type view struct {
	s  *Store
	tx *dataset
}

func (v view) do(fn func(d *dataset) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

type txRepos struct {
	v view
}

func (r txRepos) Offers() repository.OfferRepository     { return &OfferRepository{r.v} }
func (r txRepos) Requests() repository.RequestRepository { return &RequestRepository{r.v} }
func (r txRepos) Matches() repository.MatchRepository    { return &MatchRepository{r.v} }
func (r txRepos) Rides() repository.RideRepository       { return &RideRepository{r.v} }
func (r txRepos) Bookings() repository.BookingRepository { return &BookingRepository{r.v} }
