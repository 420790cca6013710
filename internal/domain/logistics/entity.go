package logistics

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectionStatus tracks supplier settlement for a pickup.
type CollectionStatus string

const (
	CollectionRecorded    CollectionStatus = "recorded"
	CollectionSynced      CollectionStatus = "synced"
	CollectionPaidPartial CollectionStatus = "paid_partial"
	CollectionPaidFull    CollectionStatus = "paid_full"
)

// Delivery records stock arriving at a PDV, confirmed by the PDV agent
// scanning the courier's token. Created atomically with the stock increase.
type Delivery struct {
	ID             int64           `db:"id" json:"id"`
	CourierID      int64           `db:"courier_id" json:"courier_id"`
	PDVID          int64           `db:"pdv_id" json:"pdv_id"`
	QuantityLiters decimal.Decimal `db:"quantity_liters" json:"quantity_liters"`
	DeliveredAt    time.Time       `db:"delivered_at" json:"delivered_at"`
	ConfirmedBy    *int64          `db:"confirmed_by" json:"confirmed_by,omitempty"`
	ConfirmedAt    *time.Time      `db:"confirmed_at" json:"confirmed_at,omitempty"`
	QRScanID       *int64          `db:"qr_scan_id" json:"qr_scan_id,omitempty"`
}

// Collection records a supplier-to-courier pickup. No stock side effect
// yet; ledger settlement is a future concern.
type Collection struct {
	ID             int64            `db:"id" json:"id"`
	SupplierID     int64            `db:"supplier_id" json:"supplier_id"`
	CourierID      int64            `db:"courier_id" json:"courier_id"`
	QuantityLiters decimal.Decimal  `db:"quantity_liters" json:"quantity_liters"`
	ValueAmount    decimal.Decimal  `db:"value_amount" json:"value_amount"`
	CollectedAt    time.Time        `db:"collected_at" json:"collected_at"`
	Status         CollectionStatus `db:"status" json:"status"`
	CreatedBy      *int64           `db:"created_by" json:"created_by,omitempty"`
	QRScanID       *int64           `db:"qr_scan_id" json:"qr_scan_id,omitempty"`
}

// Sale records stock leaving a PDV. Created atomically with the stock
// decrease.
type Sale struct {
	ID         int64           `db:"id" json:"id"`
	PDVID      int64           `db:"pdv_id" json:"pdv_id"`
	LitersSold decimal.Decimal `db:"liters_sold" json:"liters_sold"`
	SoldBy     *int64          `db:"sold_by" json:"sold_by,omitempty"`
	SoldAt     time.Time       `db:"sold_at" json:"sold_at"`
	Notes      string          `db:"notes" json:"notes"`
}
