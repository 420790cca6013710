package logistics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
)

const deliveryColumns = `id, courier_id, pdv_id, quantity_liters, delivered_at, confirmed_by, confirmed_at, qr_scan_id`

const collectionColumns = `id, supplier_id, courier_id, quantity_liters, value_amount, collected_at, status, created_by, qr_scan_id`

const saleColumns = `id, pdv_id, liters_sold, sold_by, sold_at, notes`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// InsertDeliveryTx writes the delivery event inside the coordinator's
// transaction.
func (r *Repository) InsertDeliveryTx(ctx context.Context, tx *sqlx.Tx, courierID, pdvID int64, qty decimal.Decimal, confirmedBy int64, scanID int64, at time.Time) (*Delivery, error) {
	var d Delivery
	err := tx.GetContext(ctx, &d, `
		INSERT INTO deliveries (courier_id, pdv_id, quantity_liters, delivered_at, confirmed_by, confirmed_at, qr_scan_id)
		VALUES ($1, $2, $3, $4, $5, $4, $6)
		RETURNING `+deliveryColumns+`
	`, courierID, pdvID, qty, at, confirmedBy, scanID)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &d, nil
}

// InsertSaleTx writes the sale event inside the coordinator's transaction.
func (r *Repository) InsertSaleTx(ctx context.Context, tx *sqlx.Tx, pdvID int64, qty decimal.Decimal, soldBy int64, at time.Time, notes string) (*Sale, error) {
	var s Sale
	err := tx.GetContext(ctx, &s, `
		INSERT INTO pdv_sales (pdv_id, liters_sold, sold_by, sold_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+saleColumns+`
	`, pdvID, qty, soldBy, at, notes)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &s, nil
}

// InsertCollectionTx writes the pickup event inside the coordinator's
// transaction. scanID is nil when no proof token was presented.
func (r *Repository) InsertCollectionTx(ctx context.Context, tx *sqlx.Tx, supplierID, courierID int64, qty, value decimal.Decimal, createdBy int64, scanID *int64, at time.Time) (*Collection, error) {
	var c Collection
	err := tx.GetContext(ctx, &c, `
		INSERT INTO collections (supplier_id, courier_id, quantity_liters, value_amount, collected_at, status, created_by, qr_scan_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+collectionColumns+`
	`, supplierID, courierID, qty, value, at, CollectionRecorded, createdBy, scanID)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &c, nil
}

// DeliveriesByPDV lists recent deliveries for a PDV, newest first.
func (r *Repository) DeliveriesByPDV(ctx context.Context, pdvID int64, limit int) ([]Delivery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []Delivery{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE pdv_id = $1
		ORDER BY delivered_at DESC
		LIMIT $2
	`, pdvID, limit)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return out, nil
}

// SalesByPDV lists recent sales for a PDV, newest first.
func (r *Repository) SalesByPDV(ctx context.Context, pdvID int64, limit int) ([]Sale, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []Sale{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+saleColumns+`
		FROM pdv_sales
		WHERE pdv_id = $1
		ORDER BY sold_at DESC
		LIMIT $2
	`, pdvID, limit)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return out, nil
}

// CollectionsByCourier lists recent pickups by a courier, newest first.
func (r *Repository) CollectionsByCourier(ctx context.Context, courierID int64, limit int) ([]Collection, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []Collection{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+collectionColumns+`
		FROM collections
		WHERE courier_id = $1
		ORDER BY collected_at DESC
		LIMIT $2
	`, courierID, limit)
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return out, nil
}
