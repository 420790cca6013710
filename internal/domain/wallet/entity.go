package wallet

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TxType defines supported wallet transaction types.
type TxType string

const (
	TxTypeCredit      TxType = "credit"
	TxTypeDebit       TxType = "debit"
	TxTypeTransferIn  TxType = "transfer_in"
	TxTypeTransferOut TxType = "transfer_out"
	TxTypeAdjustment  TxType = "adjustment"
)

// TxStatus defines wallet transaction statuses.
type TxStatus string

const (
	TxStatusPending  TxStatus = "pending"
	TxStatusSuccess  TxStatus = "success"
	TxStatusFailed   TxStatus = "failed"
	TxStatusCanceled TxStatus = "canceled"
)

// Providers recognised by the ledger.
const (
	ProviderLumicash = "lumicash"
	ProviderInternal = "internal"
)

type Wallet struct {
	ID               int64           `db:"id" json:"id"`
	OwnerID          int64           `db:"owner_id" json:"owner_id"`
	Address          string          `db:"address" json:"address"`
	Provider         string          `db:"provider" json:"provider"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`
	LockedBalance    decimal.Decimal `db:"locked_balance" json:"locked_balance"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	IsPlatformWallet bool            `db:"is_platform_wallet" json:"is_platform_wallet"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Meta is free-form transaction metadata stored as JSONB.
type Meta map[string]interface{}

func (m Meta) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Meta) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = Meta{}
		return nil
	}
	return errors.New("wallet: unsupported meta source type")
}

// Transaction is an immutable audit record of one balance mutation.
type Transaction struct {
	ID           int64           `db:"id" json:"id"`
	WalletID     int64           `db:"wallet_id" json:"wallet_id"`
	TxType       TxType          `db:"tx_type" json:"tx_type"`
	Status       TxStatus        `db:"status" json:"status"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Reference    string          `db:"reference" json:"reference"`
	Meta         Meta            `db:"meta" json:"meta"`
	Provider     string          `db:"provider" json:"provider"`
	ProviderTxID *string         `db:"provider_tx_id" json:"provider_tx_id,omitempty"`
	CreatedBy    *int64          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
