package handler

import (
	"time"

	"carpool/internal/domain"
)

const timeFormat = time.RFC3339

// LocationBody is a geographic point on the wire.
type LocationBody struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

func (l LocationBody) toDomain() domain.Location {
	return domain.Location{Lat: l.Lat, Lng: l.Lng, Label: l.Label}
}

func newLocationBody(l domain.Location) LocationBody {
	return LocationBody{Lat: l.Lat, Lng: l.Lng, Label: l.Label}
}

// OfferResponse is the HTTP representation of an offer.
type OfferResponse struct {
	ID                string       `json:"id"`
	DriverID          string       `json:"driver_id"`
	Origin            LocationBody `json:"origin"`
	Destination       LocationBody `json:"destination"`
	PickupTime        string       `json:"pickup_time"`
	TimeWindowMinutes int          `json:"time_window_minutes"`
	SeatsTotal        int          `json:"seats_total"`
	SeatsAvailable    int          `json:"seats_available"`
	Status            string       `json:"status"`
	CreatedAt         string       `json:"created_at"`
}

func newOfferResponse(o *domain.Offer) *OfferResponse {
	if o == nil {
		return nil
	}
	return &OfferResponse{
		ID:                o.ID,
		DriverID:          o.DriverID,
		Origin:            newLocationBody(o.Origin),
		Destination:       newLocationBody(o.Destination),
		PickupTime:        o.PickupTime.Format(timeFormat),
		TimeWindowMinutes: o.TimeWindowMinutes,
		SeatsTotal:        o.SeatsTotal,
		SeatsAvailable:    o.SeatsAvailable,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt.Format(timeFormat),
	}
}

// RequestResponse is the HTTP representation of a rider request.
type RequestResponse struct {
	ID                string       `json:"id"`
	RiderID           string       `json:"rider_id"`
	Origin            LocationBody `json:"origin"`
	Destination       LocationBody `json:"destination"`
	PickupTime        string       `json:"pickup_time"`
	TimeWindowMinutes int          `json:"time_window_minutes"`
	SeatsNeeded       int          `json:"seats_needed"`
	Mode              string       `json:"mode"`
	Status            string       `json:"status"`
	CreatedAt         string       `json:"created_at"`
}

func newRequestResponse(r *domain.Request) *RequestResponse {
	if r == nil {
		return nil
	}
	return &RequestResponse{
		ID:                r.ID,
		RiderID:           r.RiderID,
		Origin:            newLocationBody(r.Origin),
		Destination:       newLocationBody(r.Destination),
		PickupTime:        r.PickupTime.Format(timeFormat),
		TimeWindowMinutes: r.TimeWindowMinutes,
		SeatsNeeded:       r.SeatsNeeded,
		Mode:              string(r.Mode),
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt.Format(timeFormat),
	}
}

// MatchResponse is a match populated with its offer and request.
type MatchResponse struct {
	ID        string           `json:"id"`
	OfferID   string           `json:"offer_id"`
	RequestID string           `json:"request_id"`
	Score     float64          `json:"score"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
	Offer     *OfferResponse   `json:"offer,omitempty"`
	Request   *RequestResponse `json:"request,omitempty"`
}

func newMatchResponse(d *domain.MatchDetail) MatchResponse {
	return MatchResponse{
		ID:        d.Match.ID,
		OfferID:   d.Match.OfferID,
		RequestID: d.Match.RequestID,
		Score:     d.Match.Score,
		Status:    string(d.Match.Status),
		CreatedAt: d.Match.CreatedAt.Format(timeFormat),
		UpdatedAt: d.Match.UpdatedAt.Format(timeFormat),
		Offer:     newOfferResponse(d.Offer),
		Request:   newRequestResponse(d.Request),
	}
}

// RideResponse is the HTTP representation of a bookable ride.
type RideResponse struct {
	ID             string       `json:"id"`
	DriverID       string       `json:"driver_id"`
	Origin         LocationBody `json:"origin"`
	Destination    LocationBody `json:"destination"`
	DepartAt       string       `json:"depart_at"`
	CostPerKm      float64      `json:"cost_per_km"`
	DistanceMeters *float64     `json:"distance_meters"`
	SeatsTotal     int          `json:"seats_total"`
	SeatsAvailable int          `json:"seats_available"`
	Status         string       `json:"status"`
	CreatedAt      string       `json:"created_at"`
}

func newRideResponse(r *domain.Ride) *RideResponse {
	if r == nil {
		return nil
	}
	return &RideResponse{
		ID:             r.ID,
		DriverID:       r.DriverID,
		Origin:         newLocationBody(r.Origin),
		Destination:    newLocationBody(r.Destination),
		DepartAt:       r.DepartAt.Format(timeFormat),
		CostPerKm:      r.CostPerKm,
		DistanceMeters: r.DistanceMeters,
		SeatsTotal:     r.SeatsTotal,
		SeatsAvailable: r.SeatsAvailable,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt.Format(timeFormat),
	}
}

// BookingResponse is a booking populated with its ride.
type BookingResponse struct {
	ID          string        `json:"id"`
	RideID      string        `json:"ride_id"`
	RiderID     string        `json:"rider_id"`
	SeatsBooked int           `json:"seats_booked"`
	EstFare     *float64      `json:"est_fare"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"created_at"`
	Ride        *RideResponse `json:"ride,omitempty"`
}

func newBookingResponse(d *domain.BookingDetail) BookingResponse {
	return BookingResponse{
		ID:          d.Booking.ID,
		RideID:      d.Booking.RideID,
		RiderID:     d.Booking.RiderID,
		SeatsBooked: d.Booking.SeatsBooked,
		EstFare:     d.Booking.EstFare,
		Status:      string(d.Booking.Status),
		CreatedAt:   d.Booking.CreatedAt.Format(timeFormat),
		Ride:        newRideResponse(d.Ride),
	}
}
