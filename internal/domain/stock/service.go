package stock

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, pdvID int64) (*PDVStock, error) {
	return s.repo.Get(ctx, pdvID)
}

// Increase adds liters to a PDV's stock. Always succeeds for a valid
// quantity, mirroring the wallet credit path.
func (s *Service) Increase(ctx context.Context, pdvID int64, qty decimal.Decimal, eventTime time.Time) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if err := s.repo.Increase(ctx, pdvID, qty, eventTime); err != nil {
		return err
	}
	log.Info().Int64("pdv_id", pdvID).Str("liters", qty.String()).Msg("stock increased")
	return nil
}

// Decrease removes liters, failing with ErrInsufficientStock when the
// level re-read under lock does not cover the quantity.
func (s *Service) Decrease(ctx context.Context, pdvID int64, qty decimal.Decimal, eventTime time.Time) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if err := s.repo.Decrease(ctx, pdvID, qty, eventTime); err != nil {
		return err
	}
	log.Info().Int64("pdv_id", pdvID).Str("liters", qty.String()).Msg("stock decreased")
	return nil
}
