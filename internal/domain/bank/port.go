// Package bank is the outbound port to the host ledger that actually holds
// account balances. Arbitration only moves funds through it, it never reads
// balances back.
package bank

//go:generate mockgen -source port.go -destination mock_port.go -package bank

import (
	"context"
	"errors"

	"arbitron/internal/domain/money"
)

var (
	// ErrInsufficientFunds is returned when the source account cannot cover the transfer.
	ErrInsufficientFunds = errors.New("insufficient funds on host ledger")

	// ErrInvalidAccount is returned when the host ledger does not know one of the accounts.
	ErrInvalidAccount = errors.New("unknown account on host ledger")
)

// Transferer moves funds between host ledger accounts.
type Transferer interface {
	Transfer(ctx context.Context, from, to string, amount money.Money, memo string) error
}
