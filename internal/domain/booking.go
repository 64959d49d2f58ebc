package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking records seats consumed directly from a ride.
type Booking struct {
	ID          string
	RideID      string
	RiderID     string
	SeatsBooked int
	EstFare     *float64
	Status      BookingStatus
	CreatedAt   time.Time
}

// BookingDetail is a booking populated with its ride.
type BookingDetail struct {
	Booking *Booking
	Ride    *Ride
}
