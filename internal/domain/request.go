package domain

import "time"

// RequestStatus represents the current status of a trip request.
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "open"
	RequestStatusMatched   RequestStatus = "matched"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// TripMode is the kind of trip a rider is asking for.
type TripMode string

const (
	TripModePool    TripMode = "POOL"
	TripModePrivate TripMode = "PRIVATE"
	TripModeTransit TripMode = "TRANSIT"
)

const (
	DefaultSeatsNeeded = 1
	MaxSeatsNeeded     = 2
)

// Valid reports whether m is one of the known trip modes.
func (m TripMode) Valid() bool {
	switch m {
	case TripModePool, TripModePrivate, TripModeTransit:
		return true
	default:
		return false
	}
}

// Request represents a rider's trip need.
type Request struct {
	ID                string
	RiderID           string
	Origin            Location
	Destination       Location
	PickupTime        time.Time
	TimeWindowMinutes int
	SeatsNeeded       int
	Mode              TripMode
	Status            RequestStatus
	CreatedAt         time.Time
}
