package logistics

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/seasky/seasky-api/internal/domain/party"
	"github.com/seasky/seasky-api/internal/domain/qr"
	"github.com/seasky/seasky-api/internal/domain/stock"
	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
)

// Service coordinates the workflows that couple a token redemption to a
// stock mutation. Each workflow runs in one database transaction so the
// token consumption and the business effect are all-or-nothing.
type Service struct {
	db      *sqlx.DB
	repo    *Repository
	tokens  *qr.Repository
	stock   *stock.Repository
	parties *party.Repository
}

func NewService(db *sqlx.DB, repo *Repository, tokens *qr.Repository, stockRepo *stock.Repository, parties *party.Repository) *Service {
	return &Service{db: db, repo: repo, tokens: tokens, stock: stockRepo, parties: parties}
}

// DeliveryResult is what a confirmed delivery looks like to the caller.
type DeliveryResult struct {
	Delivery *Delivery       `json:"delivery"`
	Courier  *party.Courier  `json:"courier"`
	Stock    *stock.PDVStock `json:"stock"`
	Token    *qr.Token       `json:"token"`
}

// ConfirmDelivery redeems the courier's token and increases the PDV's
// stock as one atomic unit. The quantity always comes from the caller;
// the token only authorizes who and where.
func (s *Service) ConfirmDelivery(ctx context.Context, code string, pdvID int64, qty decimal.Decimal, actorID int64, ip, userAgent string) (*DeliveryResult, error) {
	if !qty.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if !qr.ValidateFormat(code) {
		return nil, qr.ErrInvalidFormat
	}

	// fail fast before consuming the token
	if _, err := s.parties.GetPointOfSale(ctx, pdvID); err != nil {
		return nil, err
	}

	var result DeliveryResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		token, scan, err := s.tokens.RedeemTx(ctx, tx, code, actorID, ip, userAgent)
		if err != nil {
			return err
		}
		if token.SubjectType != party.SubjectCourier {
			return ErrNotCourierToken
		}

		courier, err := s.parties.GetCourier(ctx, token.SubjectID)
		if err != nil {
			return err
		}

		now := time.Now()
		delivery, err := s.repo.InsertDeliveryTx(ctx, tx, courier.ID, pdvID, qty, actorID, scan.ID, now)
		if err != nil {
			return err
		}

		if err := s.stock.IncreaseTx(ctx, tx, pdvID, qty, now); err != nil {
			return err
		}

		result.Delivery = delivery
		result.Courier = courier
		result.Token = token
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Stock, err = s.stock.Get(ctx, pdvID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("pdv_id", pdvID).
		Int64("courier_id", result.Courier.ID).
		Str("liters", qty.String()).
		Msg("delivery confirmed")
	return &result, nil
}

// ReportSale decreases the PDV's stock and, only when the decrease
// succeeds, records the sale in the same transaction.
func (s *Service) ReportSale(ctx context.Context, pdvID int64, qty decimal.Decimal, actorID int64, notes string) (*Sale, *stock.PDVStock, error) {
	if !qty.IsPositive() {
		return nil, nil, ErrInvalidQuantity
	}

	if _, err := s.parties.GetPointOfSale(ctx, pdvID); err != nil {
		return nil, nil, err
	}

	var sale *Sale
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		if err := s.stock.DecreaseTx(ctx, tx, pdvID, qty, now); err != nil {
			return err
		}

		var err error
		sale, err = s.repo.InsertSaleTx(ctx, tx, pdvID, qty, actorID, now, notes)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := s.stock.Get(ctx, pdvID)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int64("pdv_id", pdvID).
		Int64("sold_by", actorID).
		Str("liters", qty.String()).
		Msg("sale reported")
	return sale, snapshot, nil
}

// RecordCollection records a supplier-to-courier pickup, optionally bound
// to a proof token. No stock effect yet.
func (s *Service) RecordCollection(ctx context.Context, supplierID, courierID int64, qty, value decimal.Decimal, actorID int64, code, ip, userAgent string) (*Collection, error) {
	if !qty.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if value.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.parties.GetSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	if _, err := s.parties.GetCourier(ctx, courierID); err != nil {
		return nil, err
	}

	var collection *Collection
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var scanID *int64
		if code != "" {
			if !qr.ValidateFormat(code) {
				return qr.ErrInvalidFormat
			}
			_, scan, err := s.tokens.RedeemTx(ctx, tx, code, actorID, ip, userAgent)
			if err != nil {
				return err
			}
			scanID = &scan.ID
		}

		var err error
		collection, err = s.repo.InsertCollectionTx(ctx, tx, supplierID, courierID, qty, value, actorID, scanID, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("supplier_id", supplierID).
		Int64("courier_id", courierID).
		Str("liters", qty.String()).
		Msg("collection recorded")
	return collection, nil
}

func (s *Service) DeliveriesByPDV(ctx context.Context, pdvID int64, limit int) ([]Delivery, error) {
	return s.repo.DeliveriesByPDV(ctx, pdvID, limit)
}

func (s *Service) SalesByPDV(ctx context.Context, pdvID int64, limit int) ([]Sale, error) {
	return s.repo.SalesByPDV(ctx, pdvID, limit)
}

func (s *Service) CollectionsByCourier(ctx context.Context, courierID int64, limit int) ([]Collection, error) {
	return s.repo.CollectionsByCourier(ctx, courierID, limit)
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return pgerrors.Map(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return pgerrors.Map(tx.Commit())
}
