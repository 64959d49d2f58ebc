package domain

import "time"

// OfferStatus represents the current status of an offer.
type OfferStatus string

const (
	OfferStatusOpen   OfferStatus = "open"
	OfferStatusClosed OfferStatus = "closed"
)

// Time window and seat bounds shared by offers and requests.
const (
	DefaultTimeWindowMinutes = 15
	MaxTimeWindowMinutes     = 120

	DefaultOfferSeats = 3
	MaxOfferSeats     = 6
)

// Offer represents a driver's published trip capacity.
type Offer struct {
	ID                string
	DriverID          string
	Origin            Location
	Destination       Location
	PickupTime        time.Time
	TimeWindowMinutes int
	SeatsTotal        int
	SeatsAvailable    int // Mutated only through the capacity pool.
	Status            OfferStatus
	CreatedAt         time.Time
}
