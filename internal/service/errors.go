package service

import "carpool/internal/domain"

var (
	// ErrInvalidOrigin is returned when origin coordinates are out of range.
	ErrInvalidOrigin = domain.ValidationError{Field: "origin", Msg: "latitude must be within -90..90 and longitude within -180..180"}

	// ErrInvalidDestination is returned when destination coordinates are out of range.
	ErrInvalidDestination = domain.ValidationError{Field: "destination", Msg: "latitude must be within -90..90 and longitude within -180..180"}

	// ErrInvalidPickupTime is returned when the pickup time is missing.
	ErrInvalidPickupTime = domain.ValidationError{Field: "pickupTime", Msg: "is required"}

	// ErrInvalidDepartAt is returned when a ride has no departure time.
	ErrInvalidDepartAt = domain.ValidationError{Field: "departAt", Msg: "is required"}

	// ErrInvalidTimeWindow is returned when the time window is out of bounds.
	ErrInvalidTimeWindow = domain.ValidationError{Field: "timeWindowMinutes", Msg: "must be within 0..120"}

	// ErrInvalidSeatsNeeded is returned when a request asks for too few or too many seats.
	ErrInvalidSeatsNeeded = domain.ValidationError{Field: "seatsNeeded", Msg: "must be within 1..2"}

	// ErrInvalidSeatsTotal is returned when an offer or ride publishes too few or too many seats.
	ErrInvalidSeatsTotal = domain.ValidationError{Field: "seatsTotal", Msg: "must be within 1..6"}

	// ErrInvalidSeats is returned when a booking asks for fewer than one seat.
	ErrInvalidSeats = domain.ValidationError{Field: "seats", Msg: "must be at least 1"}

	// ErrInvalidMode is returned when the trip mode is unknown.
	ErrInvalidMode = domain.ValidationError{Field: "mode", Msg: "must be one of POOL, PRIVATE, TRANSIT"}

	// ErrInvalidRadius is returned when a search radius is out of bounds.
	ErrInvalidRadius = domain.ValidationError{Field: "radius", Msg: "must be within 500..15000 meters"}

	// ErrInvalidCostPerKm is returned when a ride's cost per km is negative.
	ErrInvalidCostPerKm = domain.ValidationError{Field: "costPerKm", Msg: "must not be negative"}

	// ErrInvalidDistance is returned when a ride's distance is negative.
	ErrInvalidDistance = domain.ValidationError{Field: "distanceMeters", Msg: "must not be negative"}

	// ErrInvalidRequestID is returned when request ID is empty.
	ErrInvalidRequestID = domain.ValidationError{Field: "requestId", Msg: "is required"}

	// ErrInvalidMatchID is returned when match ID is empty.
	ErrInvalidMatchID = domain.ValidationError{Field: "matchId", Msg: "is required"}

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = domain.ValidationError{Field: "rideId", Msg: "is required"}

	// ErrMissingCaller is returned when a mutating operation has no caller identity.
	ErrMissingCaller = domain.ValidationError{Field: "caller", Msg: "is required"}
)

const (
	minSearchRadiusMeters = 500
	maxSearchRadiusMeters = 15000
)

func validateTrip(origin, destination domain.Location) error {
	if !origin.Valid() {
		return ErrInvalidOrigin
	}
	if !destination.Valid() {
		return ErrInvalidDestination
	}
	return nil
}

// timeWindowOrDefault validates an optional time window.
func timeWindowOrDefault(v *int) (int, error) {
	if v == nil {
		return domain.DefaultTimeWindowMinutes, nil
	}
	if *v < 0 || *v > domain.MaxTimeWindowMinutes {
		return 0, ErrInvalidTimeWindow
	}
	return *v, nil
}

// radiusOrDefault validates an optional search radius in meters.
func radiusOrDefault(v *int, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	if *v < minSearchRadiusMeters || *v > maxSearchRadiusMeters {
		return 0, ErrInvalidRadius
	}
	return *v, nil
}
