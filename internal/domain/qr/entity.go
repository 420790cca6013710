package qr

import (
	"time"

	"github.com/seasky/seasky-api/internal/domain/party"
)

// Purpose is what a token authorizes.
type Purpose string

const (
	PurposeCheckin    Purpose = "checkin"
	PurposeCollection Purpose = "collection"
	PurposeDelivery   Purpose = "delivery"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeCheckin, PurposeCollection, PurposeDelivery:
		return true
	}
	return false
}

// Token is a short-lived capability binding a subject to an authorized
// action. A one-time token ends at its first redemption; a reusable one
// can be redeemed until it expires.
type Token struct {
	ID          int64             `db:"id" json:"id"`
	Code        string            `db:"code" json:"code"`
	SubjectType party.SubjectType `db:"subject_type" json:"subject_type"`
	SubjectID   int64             `db:"subject_id" json:"subject_id"`
	Purpose     Purpose           `db:"purpose" json:"purpose"`
	ExpiresAt   time.Time         `db:"expires_at" json:"expires_at"`
	UsedAt      *time.Time        `db:"used_at" json:"used_at,omitempty"`
	OneTime     bool              `db:"one_time" json:"one_time"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// IsValid reports whether the token can still be redeemed at t.
func (tk *Token) IsValid(t time.Time) bool {
	return tk.UsedAt == nil && t.Before(tk.ExpiresAt)
}

// TTLSeconds is the remaining lifetime at t, floored at zero.
func (tk *Token) TTLSeconds(t time.Time) int64 {
	d := tk.ExpiresAt.Sub(t)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

// Scan is the immutable record of one successful redemption.
type Scan struct {
	ID        int64     `db:"id" json:"id"`
	TokenID   int64     `db:"token_id" json:"token_id"`
	ScannedBy int64     `db:"scanned_by" json:"scanned_by"`
	ScannedAt time.Time `db:"scanned_at" json:"scanned_at"`
	IP        *string   `db:"ip" json:"ip,omitempty"`
	UserAgent string    `db:"user_agent" json:"user_agent,omitempty"`
}
