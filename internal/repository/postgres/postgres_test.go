package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

// ──────────────────────────────────────────────
// CAPACITY RESERVATION
// ──────────────────────────────────────────────

func TestOfferReserve_DecrementsAndReportsRemaining(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectQuery("UPDATE offers").
		WithArgs("offer-1", 2, "open", "closed").
		WillReturnRows(sqlmock.NewRows([]string{"seats_available"}).AddRow(0))

	remaining, err := store.Offers().Reserve(context.Background(), "offer-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOfferReserve_GuardFails(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectQuery("UPDATE offers").
		WithArgs("offer-1", 3, "open", "closed").
		WillReturnRows(sqlmock.NewRows([]string{"seats_available"}))
	mock.ExpectQuery("SELECT 1 FROM offers").
		WithArgs("offer-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	_, err := store.Offers().Reserve(context.Background(), "offer-1", 3)
	if !errors.Is(err, repository.ErrInsufficientCapacity) {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOfferReserve_UnknownOffer(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectQuery("UPDATE offers").
		WillReturnRows(sqlmock.NewRows([]string{"seats_available"}))
	mock.ExpectQuery("SELECT 1 FROM offers").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	_, err := store.Offers().Reserve(context.Background(), "missing", 1)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRideReserve_KeepsStatus(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	// Rides are not closed on the last seat, so no closed status is bound.
	mock.ExpectQuery("UPDATE rides").
		WithArgs("ride-1", 1, "active").
		WillReturnRows(sqlmock.NewRows([]string{"seats_available"}).AddRow(2))

	remaining, err := store.Rides().Reserve(context.Background(), "ride-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 2 {
		t.Errorf("expected 2 remaining, got %d", remaining)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserve_NonPositiveUnitsRejected(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	_, err := store.Offers().Reserve(context.Background(), "offer-1", 0)
	if !errors.Is(err, repository.ErrInsufficientCapacity) {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement should run: %v", err)
	}
}

// ──────────────────────────────────────────────
// MATCH LEDGER
// ──────────────────────────────────────────────

func TestMatchCreate_ConflictIsDuplicate(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO matches").
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now()
	err := store.Matches().Create(context.Background(), &domain.Match{
		ID: "m-1", OfferID: "o-1", RequestID: "r-1", Status: domain.MatchStatusProposed,
		CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMatchCreate_UniqueViolationIsDuplicate(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO matches").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.Matches().Create(context.Background(), &domain.Match{ID: "m-1", OfferID: "o-1", RequestID: "r-1"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMatchTransition_StaleState(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE matches SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM matches").
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	err := store.Matches().TransitionStatus(context.Background(), "m-1", domain.MatchStatusProposed, domain.MatchStatusAccepted)
	if !errors.Is(err, repository.ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
}

func TestMatchExpireProposed_ReturnsCount(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE matches").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.Matches().ExpireProposed(context.Background(), time.Now().Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 expired, got %d", n)
	}
}

// ──────────────────────────────────────────────
// READS
// ──────────────────────────────────────────────

func TestOfferGetByID_NotFound(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectQuery("FROM offers WHERE id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Offers().GetByID(context.Background(), "nope")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRideGetByID_NullableDistance(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	cols := []string{"id", "driver_id", "origin_lat", "origin_lng", "origin_label",
		"destination_lat", "destination_lng", "destination_label", "depart_at",
		"cost_per_km", "distance_meters", "seats_total", "seats_available", "status", "created_at"}
	now := time.Now()
	mock.ExpectQuery("FROM rides WHERE id").
		WithArgs("ride-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"ride-1", "driver-1", 6.9, 79.8, "A", 7.0, 79.9, "B", now,
			50.0, nil, 3, 3, "active", now,
		))

	ride, err := store.Rides().GetByID(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.DistanceMeters != nil {
		t.Errorf("expected nil distance, got %v", *ride.DistanceMeters)
	}
	if ride.EstimatedFare() != nil {
		t.Error("expected nil fare when distance is unknown")
	}
}

var offerCols = []string{"id", "driver_id", "origin_lat", "origin_lng", "origin_label",
	"destination_lat", "destination_lng", "destination_label", "pickup_time",
	"time_window_minutes", "seats_total", "seats_available", "status", "created_at"}

func TestOfferFindCandidates_BindsArgumentsInOrder(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	now := time.Now()
	mock.ExpectQuery(`FROM offers\s+WHERE status = \$5\s+AND seats_available >= \$6.*<= \$7.*<= \$8.*LIMIT \$9`).
		WithArgs(6.9271, 79.8612, 7.2906, 80.6337, "open", 2, 3000.0, 3500.0, 50).
		WillReturnRows(sqlmock.NewRows(offerCols).AddRow(
			"offer-1", "driver-1", 6.93, 79.86, "A", 7.29, 80.63, "B", now,
			15, 4, 3, "open", now,
		))

	got, err := store.Offers().FindCandidates(context.Background(), repository.CandidateQuery{
		Origin:                  domain.Location{Lat: 6.9271, Lng: 79.8612},
		Destination:             domain.Location{Lat: 7.2906, Lng: 80.6337},
		OriginRadiusMeters:      3000,
		DestinationRadiusMeters: 3500,
		MinSeats:                2,
		Limit:                   50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "offer-1" || got[0].SeatsAvailable != 3 {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHaversineSQL_UsesGivenPlaceholders(t *testing.T) {
	t.Parallel()

	expr := haversineSQL("destination_lat", "destination_lng", 3, 4)
	for _, want := range []string{
		"radians(destination_lat - $3::double precision)",
		"cos(radians($3::double precision))",
		"radians(destination_lng - $4::double precision)",
		"2 * 6371000",
	} {
		if !strings.Contains(expr, want) {
			t.Errorf("expected %q in %s", want, expr)
		}
	}
	if strings.Contains(expr, "$1") || strings.Contains(expr, "$2") {
		t.Errorf("unexpected placeholder in %s", expr)
	}
}

func TestOfferListOpen_FiltersByStatus(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectQuery("FROM offers WHERE status = \\$1").
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows(offerCols))

	got, err := store.Offers().ListOpen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no offers, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// ──────────────────────────────────────────────
// UNIT OF WORK
// ──────────────────────────────────────────────

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE offers").
		WillReturnRows(sqlmock.NewRows([]string{"seats_available"}).AddRow(1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx repository.Repos) error {
		_, err := tx.Offers().Reserve(context.Background(), "offer-1", 1)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE offers").
		WillReturnRows(sqlmock.NewRows([]string{"seats_available"}).AddRow(1))
	mock.ExpectRollback()

	boom := errors.New("dependent write failed")
	err := store.WithinTx(context.Background(), func(tx repository.Repos) error {
		if _, err := tx.Offers().Reserve(context.Background(), "offer-1", 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected dependent error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
