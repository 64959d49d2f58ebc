package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/logging"
	"carpool/internal/repository/memory"
)

var (
	colombo = domain.Location{Lat: 6.9271, Lng: 79.8612, Label: "Colombo Fort"}
	kandy   = domain.Location{Lat: 7.2906, Lng: 80.6337, Label: "Kandy"}
	baseT   = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
)

// ──────────────────────────────────────────────
// RECORDING NOTIFIER
// ──────────────────────────────────────────────

type sentNotification struct {
	Channel string
	Event   string
	Payload map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, channel, event string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Channel: channel, Event: event, Payload: payload})
}

func (n *recordingNotifier) count(channel, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.Channel == channel && s.Event == event {
			c++
		}
	}
	return c
}

// ──────────────────────────────────────────────
// HARNESS
// ──────────────────────────────────────────────

type harness struct {
	store    *memory.Store
	notifier *recordingNotifier
	offers   *OfferService
	requests *RequestService
	matches  *MatchService
	rides    *RideService
	bookings *BookingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logging.Discard()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	allocator := NewCapacityAllocator(store, logger)

	return &harness{
		store:    store,
		notifier: notifier,
		offers:   NewOfferService(store.Offers(), nil, logger),
		requests: NewRequestService(store.Requests(), notifier, logger),
		matches:  NewMatchService(store, store.Offers(), allocator, notifier, nil, DefaultMatching(), logger),
		rides:    NewRideService(store.Rides(), RideSearchDefaults{RadiusMeters: 4000, Limit: 30}, logger),
		bookings: NewBookingService(store, allocator, notifier, logger),
	}
}

func intPtr(v int) *int { return &v }

func (h *harness) offer(t *testing.T, driverID string, pickup time.Time, window, seats int) *domain.Offer {
	t.Helper()
	o, err := h.offers.Create(context.Background(), CreateOfferRequest{
		DriverID:          driverID,
		Origin:            colombo,
		Destination:       kandy,
		PickupTime:        pickup,
		TimeWindowMinutes: intPtr(window),
		SeatsTotal:        intPtr(seats),
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return o
}

func (h *harness) request(t *testing.T, riderID string, pickup time.Time, window, seats int) *domain.Request {
	t.Helper()
	r, err := h.requests.Create(context.Background(), CreateTripRequest{
		RiderID:           riderID,
		Origin:            colombo,
		Destination:       kandy,
		PickupTime:        pickup,
		TimeWindowMinutes: intPtr(window),
		SeatsNeeded:       intPtr(seats),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return r
}

// proposal finds matches for req and returns the one paired with offerID.
func (h *harness) proposal(t *testing.T, req *domain.Request, offerID string) *domain.Match {
	t.Helper()
	details, err := h.matches.FindMatches(context.Background(), FindMatchesRequest{RequestID: req.ID})
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	for _, d := range details {
		if d.Match.OfferID == offerID {
			return d.Match
		}
	}
	t.Fatalf("no match between request %s and offer %s", req.ID, offerID)
	return nil
}
