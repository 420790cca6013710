package wallet

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config carries wallet deployment parameters. InitialBalance defaults to
// zero in production; sandboxes may seed wallets for testing.
type Config struct {
	InitialBalance decimal.Decimal
	Provider       string
}

type Service struct {
	repo *Repository
	cfg  Config
}

func NewService(repo *Repository, cfg Config) *Service {
	if cfg.Provider == "" {
		cfg.Provider = ProviderLumicash
	}
	return &Service{repo: repo, cfg: cfg}
}

// CreateForOwner provisions the wallet that accompanies a new party.
func (s *Service) CreateForOwner(ctx context.Context, ownerID int64, phone string) (*Wallet, error) {
	w, err := s.repo.Create(ctx, ownerID, phone, s.cfg.Provider, s.cfg.InitialBalance)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("wallet_id", w.ID).Str("address", w.Address).Msg("wallet created")
	return w, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Wallet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByOwner(ctx context.Context, ownerID int64) (*Wallet, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *Service) GetByAddress(ctx context.Context, address string) (*Wallet, error) {
	return s.repo.GetByAddress(ctx, address)
}

func (s *Service) PlatformWallet(ctx context.Context) (*Wallet, error) {
	return s.repo.PlatformWallet(ctx)
}

func (s *Service) SetPlatformWallet(ctx context.Context, id int64) error {
	if err := s.repo.SetPlatformWallet(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("wallet_id", id).Msg("platform wallet changed")
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context, walletID int64, limit int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, walletID, limit)
}

// Credit adds funds. Amount must be strictly positive.
func (s *Service) Credit(ctx context.Context, walletID int64, amount decimal.Decimal, reason string, createdBy *int64, meta Meta) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	rec, err := s.repo.Credit(ctx, walletID, amount, reason, createdBy, meta)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("wallet_id", walletID).Str("amount", amount.String()).Str("reference", reason).Msg("wallet credit applied")
	return rec, nil
}

// Debit removes funds, failing with ErrInsufficientFunds when the balance
// re-read under lock does not cover the amount.
func (s *Service) Debit(ctx context.Context, walletID int64, amount decimal.Decimal, reason string, createdBy *int64, meta Meta) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	rec, err := s.repo.Debit(ctx, walletID, amount, reason, createdBy, meta)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("wallet_id", walletID).Str("amount", amount.String()).Str("reference", reason).Msg("wallet debit applied")
	return rec, nil
}

// Transfer moves funds between two wallets as one atomic unit, producing a
// transfer_out and a transfer_in record that cross-reference each other.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reason string, createdBy *int64, meta Meta) (*Transaction, *Transaction, error) {
	if fromID == toID {
		return nil, nil, ErrSameWalletTransfer
	}
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}
	outTx, inTx, err := s.repo.Transfer(ctx, fromID, toID, amount, reason, createdBy, meta)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Int64("from_wallet_id", fromID).
		Int64("to_wallet_id", toID).
		Str("amount", amount.String()).
		Str("reference", reason).
		Msg("wallet transfer applied")
	return outTx, inTx, nil
}
