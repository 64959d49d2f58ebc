package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS offers (
		id                  TEXT PRIMARY KEY,
		driver_id           TEXT NOT NULL,
		origin_lat          DOUBLE PRECISION NOT NULL,
		origin_lng          DOUBLE PRECISION NOT NULL,
		origin_label        TEXT NOT NULL DEFAULT '',
		destination_lat     DOUBLE PRECISION NOT NULL,
		destination_lng     DOUBLE PRECISION NOT NULL,
		destination_label   TEXT NOT NULL DEFAULT '',
		pickup_time         TIMESTAMPTZ NOT NULL,
		time_window_minutes INTEGER NOT NULL,
		seats_total         INTEGER NOT NULL,
		seats_available     INTEGER NOT NULL CHECK (seats_available >= 0 AND seats_available <= seats_total),
		status              TEXT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_driver ON offers (driver_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_open ON offers (status, seats_available)`,

	`CREATE TABLE IF NOT EXISTS requests (
		id                  TEXT PRIMARY KEY,
		rider_id            TEXT NOT NULL,
		origin_lat          DOUBLE PRECISION NOT NULL,
		origin_lng          DOUBLE PRECISION NOT NULL,
		origin_label        TEXT NOT NULL DEFAULT '',
		destination_lat     DOUBLE PRECISION NOT NULL,
		destination_lng     DOUBLE PRECISION NOT NULL,
		destination_label   TEXT NOT NULL DEFAULT '',
		pickup_time         TIMESTAMPTZ NOT NULL,
		time_window_minutes INTEGER NOT NULL,
		seats_needed        INTEGER NOT NULL CHECK (seats_needed > 0),
		mode                TEXT NOT NULL,
		status              TEXT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_rider ON requests (rider_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id         TEXT PRIMARY KEY,
		offer_id   TEXT NOT NULL REFERENCES offers (id),
		request_id TEXT NOT NULL REFERENCES requests (id),
		score      DOUBLE PRECISION NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (offer_id, request_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_request ON matches (request_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_proposed ON matches (created_at) WHERE status = 'proposed'`,

	`CREATE TABLE IF NOT EXISTS rides (
		id                TEXT PRIMARY KEY,
		driver_id         TEXT NOT NULL,
		origin_lat        DOUBLE PRECISION NOT NULL,
		origin_lng        DOUBLE PRECISION NOT NULL,
		origin_label      TEXT NOT NULL DEFAULT '',
		destination_lat   DOUBLE PRECISION NOT NULL,
		destination_lng   DOUBLE PRECISION NOT NULL,
		destination_label TEXT NOT NULL DEFAULT '',
		depart_at         TIMESTAMPTZ NOT NULL,
		cost_per_km       DOUBLE PRECISION NOT NULL DEFAULT 0,
		distance_meters   DOUBLE PRECISION,
		seats_total       INTEGER NOT NULL,
		seats_available   INTEGER NOT NULL CHECK (seats_available >= 0 AND seats_available <= seats_total),
		status            TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_driver ON rides (driver_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_depart ON rides (status, depart_at)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id           TEXT PRIMARY KEY,
		ride_id      TEXT NOT NULL REFERENCES rides (id),
		rider_id     TEXT NOT NULL,
		seats_booked INTEGER NOT NULL CHECK (seats_booked > 0),
		est_fare     DOUBLE PRECISION,
		status       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_rider ON bookings (rider_id, created_at DESC)`,
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
