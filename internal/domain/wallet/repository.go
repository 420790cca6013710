package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
)

const walletColumns = `id, owner_id, address, provider, balance, locked_balance,
	is_active, is_platform_wallet, created_at, updated_at`

const txColumns = `id, wallet_id, tx_type, status, amount, reference, meta,
	provider, provider_tx_id, created_by, created_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a wallet for an owner. The address collides only when two
// owners share a normalized phone; a numeric suffix resolves that like the
// legacy system did.
func (r *Repository) Create(ctx context.Context, ownerID int64, phone, provider string, initialBalance decimal.Decimal) (*Wallet, error) {
	base := NormalizeAddress(phone)
	if base == "" {
		return nil, fmt.Errorf("wallet: owner %d has no usable phone for an address", ownerID)
	}

	address := base
	for attempt := 0; attempt < 10; attempt++ {
		var w Wallet
		err := r.db.GetContext(ctx, &w, `
			INSERT INTO wallets (owner_id, address, provider, balance)
			VALUES ($1, $2, $3, $4)
			RETURNING `+walletColumns+`
		`, ownerID, address, provider, initialBalance)
		if err == nil {
			return &w, nil
		}
		mapped := pgerrors.Map(err)
		if errors.Is(mapped, pgerrors.ErrUniqueViolation) {
			address = fmt.Sprintf("%s%d", base, attempt+1)
			continue
		}
		return nil, mapped
	}
	return nil, fmt.Errorf("wallet: could not allocate a unique address for %q", base)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &w, nil
}

func (r *Repository) GetByOwner(ctx context.Context, ownerID int64) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &w, nil
}

func (r *Repository) GetByAddress(ctx context.Context, address string) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE address = $1`,
		NormalizeAddress(address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &w, nil
}

// PlatformWallet resolves the platform wallet per call; there is no cached
// singleton, the partial unique index guarantees at most one row.
func (r *Repository) PlatformWallet(ctx context.Context) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE is_platform_wallet`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPlatformWallet
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &w, nil
}

// SetPlatformWallet moves the platform flag onto the given wallet.
func (r *Repository) SetPlatformWallet(ctx context.Context, id int64) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return pgerrors.Map(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET is_platform_wallet = FALSE, updated_at = now() WHERE is_platform_wallet`); err != nil {
		return pgerrors.Map(err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET is_platform_wallet = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return pgerrors.Map(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWalletNotFound
	}

	return pgerrors.Map(tx.Commit())
}

// Deactivate soft-deletes a wallet; balances and history stay queryable.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE wallets SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return pgerrors.Map(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, walletID int64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 300 {
		limit = 300
	}
	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+txColumns+`
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, walletID, limit)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return txs, nil
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockWallet takes the exclusive row lock and returns the balance as seen
// under the lock.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, id int64) (*Wallet, error) {
	var w Wallet
	err := tx.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	if !w.IsActive {
		return nil, ErrWalletInactive
	}
	return &w, nil
}

// lockWalletPair locks both wallets of a transfer in ascending id order,
// regardless of transfer direction, so reciprocal concurrent transfers
// cannot deadlock.
func (r *Repository) lockWalletPair(ctx context.Context, tx *sqlx.Tx, a, b int64) (*Wallet, *Wallet, error) {
	var rows []Wallet
	err := tx.SelectContext(ctx, &rows, `
		SELECT `+walletColumns+` FROM wallets WHERE id IN ($1, $2) ORDER BY id FOR UPDATE
	`, a, b)
	if err != nil {
		return nil, nil, pgerrors.Map(err)
	}
	if len(rows) != 2 {
		return nil, nil, ErrWalletNotFound
	}

	byID := map[int64]*Wallet{rows[0].ID: &rows[0], rows[1].ID: &rows[1]}
	wa, wb := byID[a], byID[b]
	if wa == nil || wb == nil {
		return nil, nil, ErrWalletNotFound
	}
	if !wa.IsActive || !wb.IsActive {
		return nil, nil, ErrWalletInactive
	}
	return wa, wb, nil
}

func (r *Repository) updateBalance(ctx context.Context, tx *sqlx.Tx, id int64, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = now() WHERE id = $2`, balance, id)
	return pgerrors.Map(err)
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, w *Wallet, txType TxType, amount decimal.Decimal, reference string, createdBy *int64, meta Meta) (*Transaction, error) {
	if meta == nil {
		meta = Meta{}
	}
	var rec Transaction
	err := tx.GetContext(ctx, &rec, `
		INSERT INTO wallet_transactions (wallet_id, tx_type, status, amount, reference, meta, provider, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+txColumns+`
	`, w.ID, txType, TxStatusSuccess, amount, reference, meta, w.Provider, createdBy)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &rec, nil
}

// Credit adds funds to a wallet and records the audit row in one
// transaction.
func (r *Repository) Credit(ctx context.Context, walletID int64, amount decimal.Decimal, reference string, createdBy *int64, meta Meta) (*Transaction, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	if err := r.updateBalance(ctx, tx, w.ID, w.Balance.Add(amount)); err != nil {
		return nil, err
	}

	rec, err := r.insertTransaction(ctx, tx, w, TxTypeCredit, amount, reference, createdBy, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, pgerrors.Map(err)
	}
	return rec, nil
}

// Debit removes funds. The balance is re-read under the row lock so two
// concurrent debits can never drain the wallet below zero.
func (r *Repository) Debit(ctx context.Context, walletID int64, amount decimal.Decimal, reference string, createdBy *int64, meta Meta) (*Transaction, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	if w.Balance.LessThan(amount) {
		return nil, &InsufficientFundsError{Balance: w.Balance, Requested: amount}
	}

	if err := r.updateBalance(ctx, tx, w.ID, w.Balance.Sub(amount)); err != nil {
		return nil, err
	}

	rec, err := r.insertTransaction(ctx, tx, w, TxTypeDebit, amount, reference, createdBy, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, pgerrors.Map(err)
	}
	return rec, nil
}

// Transfer moves funds between two wallets. Both balance mutations and
// both audit rows commit together or not at all.
func (r *Repository) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reference string, createdBy *int64, meta Meta) (*Transaction, *Transaction, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, nil, pgerrors.Map(err)
	}
	defer tx.Rollback()

	src, dst, err := r.lockWalletPair(ctx, tx, fromID, toID)
	if err != nil {
		return nil, nil, err
	}

	if src.Balance.LessThan(amount) {
		return nil, nil, &InsufficientFundsError{Balance: src.Balance, Requested: amount}
	}

	if err := r.updateBalance(ctx, tx, src.ID, src.Balance.Sub(amount)); err != nil {
		return nil, nil, err
	}
	if err := r.updateBalance(ctx, tx, dst.ID, dst.Balance.Add(amount)); err != nil {
		return nil, nil, err
	}

	outMeta := Meta{"to_wallet_id": dst.ID}
	inMeta := Meta{"from_wallet_id": src.ID}
	for k, v := range meta {
		outMeta[k] = v
		inMeta[k] = v
	}

	outTx, err := r.insertTransaction(ctx, tx, src, TxTypeTransferOut, amount, reference, createdBy, outMeta)
	if err != nil {
		return nil, nil, err
	}
	inTx, err := r.insertTransaction(ctx, tx, dst, TxTypeTransferIn, amount, reference, createdBy, inMeta)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, pgerrors.Map(err)
	}
	return outTx, inTx, nil
}
