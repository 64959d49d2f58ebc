package domain

import (
	"math"
	"time"
)

// RideStatus represents the current status of a bookable ride.
type RideStatus string

const (
	RideStatusActive    RideStatus = "active"
	RideStatusCancelled RideStatus = "cancelled"
	RideStatusCompleted RideStatus = "completed"
)

// Ride is a driver-published trip that riders book directly, without a match.
type Ride struct {
	ID             string
	DriverID       string
	Origin         Location
	Destination    Location
	DepartAt       time.Time
	CostPerKm      float64
	DistanceMeters *float64 // Optional, nil when the route was not measured.
	SeatsTotal     int
	SeatsAvailable int
	Status         RideStatus
	CreatedAt      time.Time
}

// EstimatedFare derives the fare of a booking from the route length.
// Returns nil when the distance is unknown.
func (r *Ride) EstimatedFare() *float64 {
	if r.DistanceMeters == nil {
		return nil
	}
	fare := math.Round(*r.DistanceMeters / 1000 * r.CostPerKm)
	return &fare
}
