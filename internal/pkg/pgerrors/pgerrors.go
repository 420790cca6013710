package pgerrors

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrConcurrencyConflict marks serialization failures, deadlocks and
	// lock-wait timeouts. The operation had no effect and may be retried.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrStorageUnavailable marks infrastructure failures. Never safe to
	// conflate with a domain error.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUniqueViolation marks a unique-constraint violation.
	ErrUniqueViolation = errors.New("unique violation")

	// ErrForeignKeyViolation marks a reference to a row that does not exist.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Map classifies a PostgreSQL driver error into one of the sentinel kinds
// above, keeping the original error in the chain. Domain-level conditions
// (sql.ErrNoRows) pass through untouched.
func Map(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, context.Canceled) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return wrap(ErrUniqueViolation, err)
		case pqErr.Code == "23503":
			return wrap(ErrForeignKeyViolation, err)
		case pqErr.Code == "40001" || pqErr.Code == "40P01" || pqErr.Code == "55P03":
			return wrap(ErrConcurrencyConflict, err)
		case strings.HasPrefix(string(pqErr.Code), "08"), // connection exceptions
			strings.HasPrefix(string(pqErr.Code), "53"), // insufficient resources
			strings.HasPrefix(string(pqErr.Code), "57"): // operator intervention
			return wrap(ErrStorageUnavailable, err)
		}
		return err
	}

	// Driver-level failures (bad conn, closed pool) mean storage trouble.
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return wrap(ErrStorageUnavailable, err)
	}

	return err
}

type wrapped struct {
	kind  error
	cause error
}

func wrap(kind, cause error) error {
	return &wrapped{kind: kind, cause: cause}
}

func (w *wrapped) Error() string { return w.kind.Error() + ": " + w.cause.Error() }

func (w *wrapped) Is(target error) bool { return target == w.kind }

func (w *wrapped) Unwrap() error { return w.cause }
