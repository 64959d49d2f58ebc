package repository

import "context"

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Offers() OfferRepository
	Requests() RequestRepository
	Matches() MatchRepository
	Rides() RideRepository
	Bookings() BookingRepository
}

// Store is the entity store. Repositories obtained from it outside
// WithinTx run each statement on its own.
type Store interface {
	Repos

	// WithinTx runs fn in a single unit of work. Every write made through
	// the Repos passed to fn is committed when fn returns nil and discarded
	// otherwise.
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
}
