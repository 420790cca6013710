package wallet

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrSameWalletTransfer = errors.New("cannot transfer to the same wallet")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrWalletInactive     = errors.New("wallet is deactivated")
	ErrNoPlatformWallet   = errors.New("no platform wallet defined")
)

// InsufficientFundsError carries the balance seen under lock so callers can
// report required vs. available.
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: have %s, need %s", e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }
