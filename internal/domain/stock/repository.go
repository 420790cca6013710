package stock

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
)

const stockColumns = `id, pdv_id, current_liters, last_event_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ensureStock creates the stock row on first reference.
func ensureStock(ctx context.Context, q sqlx.ExtContext, pdvID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO pdv_stocks (pdv_id, current_liters)
		VALUES ($1, 0)
		ON CONFLICT (pdv_id) DO NOTHING
	`, pdvID)
	return pgerrors.Map(err)
}

// Get returns the stock row for a PDV, creating it at zero if absent.
func (r *Repository) Get(ctx context.Context, pdvID int64) (*PDVStock, error) {
	if err := ensureStock(ctx, r.db, pdvID); err != nil {
		return nil, err
	}

	var s PDVStock
	err := r.db.GetContext(ctx, &s, `SELECT `+stockColumns+` FROM pdv_stocks WHERE pdv_id = $1`, pdvID)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &s, nil
}

// lockStock ensures the row exists and takes the exclusive row lock.
func lockStock(ctx context.Context, tx *sqlx.Tx, pdvID int64) (*PDVStock, error) {
	if err := ensureStock(ctx, tx, pdvID); err != nil {
		return nil, err
	}

	var s PDVStock
	err := tx.GetContext(ctx, &s, `SELECT `+stockColumns+` FROM pdv_stocks WHERE pdv_id = $1 FOR UPDATE`, pdvID)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &s, nil
}

// IncreaseTx adds quantity inside a caller-owned transaction. Used by the
// delivery workflow so the stock change commits with the token consumption.
func (r *Repository) IncreaseTx(ctx context.Context, tx *sqlx.Tx, pdvID int64, qty decimal.Decimal, eventTime time.Time) error {
	s, err := lockStock(ctx, tx, pdvID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pdv_stocks
		SET current_liters = $1, last_event_at = $2, updated_at = now()
		WHERE id = $3
	`, s.CurrentLiters.Add(qty), eventTime, s.ID)
	return pgerrors.Map(err)
}

// DecreaseTx subtracts quantity inside a caller-owned transaction. The
// level is re-read under the lock so concurrent sales cannot take the same
// liters twice.
func (r *Repository) DecreaseTx(ctx context.Context, tx *sqlx.Tx, pdvID int64, qty decimal.Decimal, eventTime time.Time) error {
	s, err := lockStock(ctx, tx, pdvID)
	if err != nil {
		return err
	}

	if s.CurrentLiters.LessThan(qty) {
		return &InsufficientStockError{Available: s.CurrentLiters, Requested: qty}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pdv_stocks
		SET current_liters = $1, last_event_at = $2, updated_at = now()
		WHERE id = $3
	`, s.CurrentLiters.Sub(qty), eventTime, s.ID)
	return pgerrors.Map(err)
}

// Increase runs IncreaseTx in its own transaction.
func (r *Repository) Increase(ctx context.Context, pdvID int64, qty decimal.Decimal, eventTime time.Time) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.IncreaseTx(ctx, tx, pdvID, qty, eventTime)
	})
}

// Decrease runs DecreaseTx in its own transaction.
func (r *Repository) Decrease(ctx context.Context, pdvID int64, qty decimal.Decimal, eventTime time.Time) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.DecreaseTx(ctx, tx, pdvID, qty, eventTime)
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return pgerrors.Map(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return pgerrors.Map(tx.Commit())
}
