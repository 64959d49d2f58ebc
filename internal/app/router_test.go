package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"carpool/internal/handler"
	"carpool/internal/logging"
	"carpool/internal/middleware"
	"carpool/internal/realtime"
	"carpool/internal/repository/memory"
	"carpool/internal/service"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the full HTTP surface over the in-memory store.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	logger := logging.Discard()
	store := memory.NewStore()
	notifier := service.NewNotificationService(logger)
	allocator := service.NewCapacityAllocator(store, logger)

	return NewRouter(RouterDeps{
		RequestHandler: handler.NewRequestHandler(service.NewRequestService(store.Requests(), notifier, logger), logger),
		OfferHandler:   handler.NewOfferHandler(service.NewOfferService(store.Offers(), nil, logger), logger),
		MatchHandler: handler.NewMatchHandler(
			service.NewMatchService(store, store.Offers(), allocator, notifier, nil, service.DefaultMatching(), logger), logger),
		RideHandler: handler.NewRideHandler(
			service.NewRideService(store.Rides(), service.RideSearchDefaults{RadiusMeters: 4000, Limit: 30}, logger), logger),
		BookingHandler: handler.NewBookingHandler(service.NewBookingService(store, allocator, notifier, logger), logger),
		StreamHandler:  handler.NewStreamHandler(realtime.NewHub(), nil, logger),
		Auth:           middleware.NewAuthenticator(testSecret),
		Logger:         logger,
	})
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func do(t *testing.T, r http.Handler, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

var (
	colombo = map[string]any{"lat": 6.9271, "lng": 79.8612, "label": "Colombo Fort"}
	kandy   = map[string]any{"lat": 7.2906, "lng": 80.6337, "label": "Kandy"}
	pickup  = "2025-03-01T08:00:00Z"
)

// ──────────────────────────────────────────────
// 1. PUBLIC ROUTES AND AUTH
// ──────────────────────────────────────────────

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	if w := do(t, router, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", w.Code)
	}
}

func TestAuthGuards(t *testing.T) {
	router := newTestRouter(t)

	if w := do(t, router, http.MethodGet, "/v1/requests/mine", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	offer := map[string]any{"origin": colombo, "destination": kandy, "pickup_time": pickup}
	if w := do(t, router, http.MethodPost, "/v1/offers", token(t, "rider-1", "rider"), offer); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a rider creating an offer, got %d", w.Code)
	}
}

// ──────────────────────────────────────────────
// 2. MATCHING FLOW
// ──────────────────────────────────────────────

func TestMatchingFlow(t *testing.T) {
	router := newTestRouter(t)
	driver := token(t, "driver-1", "driver")
	rider := token(t, "rider-1", "rider")
	stranger := token(t, "rider-9", "rider")

	w := do(t, router, http.MethodPost, "/v1/offers", driver, map[string]any{
		"origin": colombo, "destination": kandy, "pickup_time": pickup, "seats_total": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create offer: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	offer := decode[handler.OfferResponse](t, w)
	if offer.SeatsAvailable != 1 || offer.Status != "open" {
		t.Fatalf("unexpected offer: %+v", offer)
	}

	w = do(t, router, http.MethodPost, "/v1/requests", rider, map[string]any{
		"origin": colombo, "destination": kandy, "pickup_time": pickup,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create request: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	req := decode[handler.RequestResponse](t, w)
	if req.Mode != "POOL" || req.SeatsNeeded != 1 || req.TimeWindowMinutes != 15 {
		t.Errorf("expected defaults applied, got %+v", req)
	}

	// Anonymous search is allowed.
	w = do(t, router, http.MethodPost, "/v1/matches/find", "", map[string]any{"request_id": req.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("find: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	matches := decode[[]handler.MatchResponse](t, w)
	if len(matches) != 1 || matches[0].Offer == nil || matches[0].Offer.ID != offer.ID {
		t.Fatalf("expected one populated match, got %+v", matches)
	}
	matchID := matches[0].ID

	w = do(t, router, http.MethodPost, "/v1/matches/"+matchID+"/accept", stranger, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("stranger accept: expected 404, got %d", w.Code)
	}
	if body := decode[handler.ErrorResponse](t, w); body.Code != "not_allowed" {
		t.Errorf("expected not_allowed code, got %q", body.Code)
	}

	w = do(t, router, http.MethodPost, "/v1/matches/missing/accept", rider, nil)
	if body := decode[handler.ErrorResponse](t, w); w.Code != http.StatusNotFound || body.Code != "not_found" {
		t.Errorf("unknown match: expected 404 not_found, got %d %q", w.Code, body.Code)
	}

	w = do(t, router, http.MethodPost, "/v1/matches/"+matchID+"/accept", rider, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	accepted := decode[handler.MatchResponse](t, w)
	if accepted.Status != "accepted" || accepted.Offer.SeatsAvailable != 0 || accepted.Offer.Status != "closed" {
		t.Errorf("unexpected accepted match: %+v", accepted)
	}

	// A second rider finds nothing once the only seat is gone.
	other := token(t, "rider-2", "rider")
	w = do(t, router, http.MethodPost, "/v1/requests", other, map[string]any{
		"origin": colombo, "destination": kandy, "pickup_time": pickup,
	})
	otherReq := decode[handler.RequestResponse](t, w)
	w = do(t, router, http.MethodPost, "/v1/matches/find", other, map[string]any{"request_id": otherReq.ID})
	if got := decode[[]handler.MatchResponse](t, w); len(got) != 0 {
		t.Errorf("expected no matches on a closed offer, got %d", len(got))
	}

	w = do(t, router, http.MethodPost, "/v1/requests/"+req.ID+"/cancel", rider, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("cancel matched request: expected 409, got %d", w.Code)
	}
}

func TestFindMatches_Validation(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/v1/matches/find", "", map[string]any{"request_id": "x", "origin_radius_meters": 20000})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decode[handler.ErrorResponse](t, w); body.Code != "invalid_argument" {
		t.Errorf("expected invalid_argument, got %q", body.Code)
	}

	w = do(t, router, http.MethodPost, "/v1/matches/find", "", map[string]any{"request_id": "unknown"})
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Errorf("unknown request: expected 200 [], got %d %s", w.Code, w.Body.String())
	}
}

// ──────────────────────────────────────────────
// 3. RIDES AND BOOKINGS
// ──────────────────────────────────────────────

func TestBookingFlow(t *testing.T) {
	router := newTestRouter(t)
	driver := token(t, "driver-1", "driver")
	rider := token(t, "rider-1", "rider")

	w := do(t, router, http.MethodPost, "/v1/rides", driver, map[string]any{
		"origin": colombo, "destination": kandy, "depart_at": pickup,
		"cost_per_km": 40, "distance_meters": 115500, "seats_total": 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create ride: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	ride := decode[handler.RideResponse](t, w)

	q := url.Values{}
	q.Set("origin_lat", "6.9271")
	q.Set("origin_lng", "79.8612")
	q.Set("dest_lat", "7.2906")
	q.Set("dest_lng", "80.6337")
	q.Set("depart_after", "2025-03-01T07:00:00Z")
	w = do(t, router, http.MethodGet, "/v1/rides/search?"+q.Encode(), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if found := decode[[]handler.RideResponse](t, w); len(found) != 1 || found[0].ID != ride.ID {
		t.Fatalf("expected the ride in search results, got %+v", found)
	}

	w = do(t, router, http.MethodPost, "/v1/bookings", rider, map[string]any{"ride_id": ride.ID, "seats": 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	booking := decode[handler.BookingResponse](t, w)
	if booking.EstFare == nil || *booking.EstFare != 4620 {
		t.Errorf("expected fare 4620, got %v", booking.EstFare)
	}

	w = do(t, router, http.MethodPost, "/v1/bookings", rider, map[string]any{"ride_id": ride.ID, "seats": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("overbook: expected 409, got %d", w.Code)
	}
	if body := decode[handler.ErrorResponse](t, w); body.Code != "capacity_exhausted" {
		t.Errorf("expected capacity_exhausted, got %q", body.Code)
	}

	w = do(t, router, http.MethodGet, "/v1/bookings/mine", rider, nil)
	mine := decode[[]handler.BookingResponse](t, w)
	if len(mine) != 1 || mine[0].Ride == nil || mine[0].Ride.SeatsAvailable != 0 {
		t.Errorf("expected one booking with its full ride, got %+v", mine)
	}

	w = do(t, router, http.MethodGet, "/v1/rides/search?origin_lat=6.9", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("incomplete search: expected 400, got %d", w.Code)
	}
}
