package party

import "time"

// SubjectType identifies which kind of party a proof token is bound to.
type SubjectType string

const (
	SubjectCourier  SubjectType = "courier"
	SubjectPDV      SubjectType = "pdv"
	SubjectSupplier SubjectType = "supplier"
)

// Valid reports whether s is a known subject type.
func (s SubjectType) Valid() bool {
	switch s {
	case SubjectCourier, SubjectPDV, SubjectSupplier:
		return true
	}
	return false
}

type Courier struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	CourierCode   string    `db:"courier_code" json:"courier_code"`
	FullName      string    `db:"full_name" json:"full_name"`
	TransportMode string    `db:"transport_mode" json:"transport_mode,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type PointOfSale struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Province    string    `db:"province" json:"province,omitempty"`
	Commune     string    `db:"commune" json:"commune,omitempty"`
	Address     string    `db:"address" json:"address,omitempty"`
	AgentUserID *int64    `db:"agent_user_id" json:"agent_user_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Supplier struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	SupplierType string    `db:"supplier_type" json:"supplier_type"`
	Province     string    `db:"province" json:"province,omitempty"`
	Commune      string    `db:"commune" json:"commune,omitempty"`
	Address      string    `db:"address" json:"address,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Subject is the resolved identity behind a (subject_type, subject_id) pair.
type Subject struct {
	Type SubjectType `json:"type"`
	ID   int64       `json:"id"`
	Code string      `json:"code,omitempty"`
	Name string      `json:"name"`
}
