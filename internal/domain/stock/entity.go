package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// PDVStock is the live stock level of one point of sale. Rows appear lazily
// on first reference and are only ever mutated through Increase/Decrease.
type PDVStock struct {
	ID            int64           `db:"id" json:"id"`
	PDVID         int64           `db:"pdv_id" json:"pdv_id"`
	CurrentLiters decimal.Decimal `db:"current_liters" json:"current_liters"`
	LastEventAt   *time.Time      `db:"last_event_at" json:"last_event_at,omitempty"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
