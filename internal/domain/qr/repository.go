package qr

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/seasky/seasky-api/internal/domain/party"
	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
)

const tokenColumns = `id, code, subject_type, subject_id, purpose, expires_at, used_at, one_time, created_at`

const scanColumns = `id, token_id, scanned_by, scanned_at, ip, user_agent`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a freshly issued token, retrying on the astronomically
// unlikely code collision.
func (r *Repository) Insert(ctx context.Context, subjectType party.SubjectType, subjectID int64, purpose Purpose, expiresAt time.Time, oneTime bool) (*Token, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var t Token
		err := r.db.GetContext(ctx, &t, `
			INSERT INTO qr_tokens (code, subject_type, subject_id, purpose, expires_at, one_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+tokenColumns+`
		`, GenerateCode(), subjectType, subjectID, purpose, expiresAt, oneTime)
		if err == nil {
			return &t, nil
		}
		mapped := pgerrors.Map(err)
		if errors.Is(mapped, pgerrors.ErrUniqueViolation) {
			continue
		}
		return nil, mapped
	}
	return nil, errors.New("qr: could not generate a unique token code")
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*Token, error) {
	var t Token
	err := r.db.GetContext(ctx, &t, `SELECT `+tokenColumns+` FROM qr_tokens WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &t, nil
}

// RedeemTx performs the redemption state transition inside a caller-owned
// transaction: lock the token row, re-check validity under the lock, insert
// the scan record, and mark one-time tokens used. The caller commits the
// transaction together with whatever business mutation the token
// authorized, so "token used" and "effect applied" are all-or-nothing.
func (r *Repository) RedeemTx(ctx context.Context, tx *sqlx.Tx, code string, scannedBy int64, ip, userAgent string) (*Token, *Scan, error) {
	var t Token
	err := tx.GetContext(ctx, &t, `SELECT `+tokenColumns+` FROM qr_tokens WHERE code = $1 FOR UPDATE`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, nil, pgerrors.Map(err)
	}

	now := time.Now()
	if !now.Before(t.ExpiresAt) {
		return nil, nil, ErrTokenExpired
	}
	if t.OneTime && t.UsedAt != nil {
		return nil, nil, ErrTokenAlreadyUsed
	}

	var ipVal interface{}
	if ip != "" {
		ipVal = ip
	}

	var s Scan
	err = tx.GetContext(ctx, &s, `
		INSERT INTO qr_scans (token_id, scanned_by, ip, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING `+scanColumns+`
	`, t.ID, scannedBy, ipVal, userAgent)
	if err != nil {
		return nil, nil, pgerrors.Map(err)
	}

	if t.OneTime {
		if _, err := tx.ExecContext(ctx,
			`UPDATE qr_tokens SET used_at = $1 WHERE id = $2`, now, t.ID); err != nil {
			return nil, nil, pgerrors.Map(err)
		}
		t.UsedAt = &now
	}

	return &t, &s, nil
}

// Redeem runs RedeemTx in its own transaction, for redemptions with no
// coupled business mutation.
func (r *Repository) Redeem(ctx context.Context, code string, scannedBy int64, ip, userAgent string) (*Token, *Scan, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, nil, pgerrors.Map(err)
	}
	defer tx.Rollback()

	t, s, err := r.RedeemTx(ctx, tx, code, scannedBy, ip, userAgent)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, pgerrors.Map(err)
	}
	return t, s, nil
}

// Active lists unused, unexpired tokens ordered by soonest expiry.
func (r *Repository) Active(ctx context.Context) ([]Token, error) {
	tokens := []Token{}
	err := r.db.SelectContext(ctx, &tokens, `
		SELECT `+tokenColumns+`
		FROM qr_tokens
		WHERE expires_at > now() AND used_at IS NULL
		ORDER BY expires_at
	`)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return tokens, nil
}

// ScansByActor returns an actor's redemption history, newest first.
func (r *Repository) ScansByActor(ctx context.Context, actorID int64, limit int) ([]Scan, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	scans := []Scan{}
	err := r.db.SelectContext(ctx, &scans, `
		SELECT `+scanColumns+`
		FROM qr_scans
		WHERE scanned_by = $1
		ORDER BY scanned_at DESC
		LIMIT $2
	`, actorID, limit)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return scans, nil
}
