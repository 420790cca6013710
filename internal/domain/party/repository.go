package party

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCourier(ctx context.Context, id int64) (*Courier, error) {
	var c Courier
	err := r.db.GetContext(ctx, &c, `
		SELECT c.id, c.user_id, c.courier_code, c.transport_mode, c.is_active, c.created_at,
		       u.full_name
		FROM couriers c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &c, nil
}

func (r *Repository) GetPointOfSale(ctx context.Context, id int64) (*PointOfSale, error) {
	var p PointOfSale
	err := r.db.GetContext(ctx, &p, `
		SELECT id, code, name, province, commune, address, agent_user_id, created_at, updated_at
		FROM points_of_sale
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &p, nil
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (*Supplier, error) {
	var s Supplier
	err := r.db.GetContext(ctx, &s, `
		SELECT id, user_id, supplier_type, province, commune, address, created_at
		FROM suppliers
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, pgerrors.Map(err)
	}
	return &s, nil
}

// CreatePointOfSale inserts a PDV, generating a unique PDV code with a
// bounded collision retry.
func (r *Repository) CreatePointOfSale(ctx context.Context, p *PointOfSale) error {
	for attempt := 0; attempt < 10; attempt++ {
		code := p.Code
		if code == "" {
			code = genPDVCode()
		}

		err := r.db.QueryRowxContext(ctx, `
			INSERT INTO points_of_sale (code, name, province, commune, address, agent_user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, code, created_at, updated_at
		`, code, p.Name, p.Province, p.Commune, p.Address, p.AgentUserID).
			Scan(&p.ID, &p.Code, &p.CreatedAt, &p.UpdatedAt)
		if err == nil {
			return nil
		}
		mapped := pgerrors.Map(err)
		if errors.Is(mapped, pgerrors.ErrUniqueViolation) && p.Code == "" {
			continue
		}
		return mapped
	}
	return ErrCodeGenerationRetry
}

func genPDVCode() string {
	buf := make([]byte, 3)
	rand.Read(buf)
	return fmt.Sprintf("PDV%d%s", time.Now().Year(), strings.ToUpper(hex.EncodeToString(buf)))
}
