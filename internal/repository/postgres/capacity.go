package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carpool/internal/repository"
)

var (
	errNotFound   = repository.ErrNotFound
	errStale      = repository.ErrStaleState
	errNoCapacity = repository.ErrInsufficientCapacity
)

// capacitySpec names the table holding a capacity counter and the status
// values that guard it. An empty closedStatus leaves the status untouched
// when the counter reaches zero.
type capacitySpec struct {
	table        string
	openStatus   string
	closedStatus string
}

func (s capacitySpec) reserveSQL() string {
	if s.closedStatus == "" {
		return fmt.Sprintf(`
		UPDATE %s
		SET seats_available = seats_available - $2
		WHERE id = $1 AND status = $3 AND seats_available >= $2
		RETURNING seats_available
	`, s.table)
	}
	return fmt.Sprintf(`
		UPDATE %s
		SET seats_available = seats_available - $2,
		    status = CASE WHEN seats_available - $2 = 0 THEN $4 ELSE status END
		WHERE id = $1 AND status = $3 AND seats_available >= $2
		RETURNING seats_available
	`, s.table)
}

// reserveCapacity decrements the counter in a single conditional update so
// concurrent reservations against the same row serialize on its row lock.
func reserveCapacity(ctx context.Context, q Querier, spec capacitySpec, id string, units int) (int, error) {
	if units <= 0 {
		return 0, fmt.Errorf("reserve %d units: %w", units, errNoCapacity)
	}

	args := []any{id, units, spec.openStatus}
	if spec.closedStatus != "" {
		args = append(args, spec.closedStatus)
	}

	var remaining int
	err := q.QueryRowContext(ctx, spec.reserveSQL(), args...).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	ok, err := exists(ctx, q, spec.table, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errNotFound
	}
	return 0, errNoCapacity
}
