package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// haversineSQL renders the great-circle distance in meters between the
// point stored in latCol/lngCol and the point bound to the given
// placeholders.
func haversineSQL(latCol, lngCol string, latArg, lngArg int) string {
	return fmt.Sprintf(
		"(2 * 6371000 * asin(least(1, sqrt("+
			"power(sin(radians(%[1]s - $%[3]d::double precision) / 2), 2) + "+
			"cos(radians($%[3]d::double precision)) * cos(radians(%[1]s)) * "+
			"power(sin(radians(%[2]s - $%[4]d::double precision) / 2), 2)))))",
		latCol, lngCol, latArg, lngArg,
	)
}

func exists(ctx context.Context, q Querier, table, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = $1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// transition runs a status compare-and-set statement whose first argument
// is the entity id and resolves a zero-row outcome into ErrNotFound or
// ErrStaleState.
func transition(ctx context.Context, q Querier, table, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	ok, err := exists(ctx, q, table, args[0].(string))
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound
	}
	return errStale
}
