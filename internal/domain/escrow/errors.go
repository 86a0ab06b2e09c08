package escrow

import "errors"

var (
	// ErrInsufficientBalance is returned when a debit exceeds the entry's balance.
	ErrInsufficientBalance = errors.New("insufficient escrow balance")

	// ErrEntryNotFound is returned when debiting an account with no entry in the case.
	ErrEntryNotFound = errors.New("escrow entry not found")

	// ErrLedgerCorrupted signals a negative balance on disk. It is fatal for
	// the surrounding transition: the whole call must abort.
	ErrLedgerCorrupted = errors.New("escrow ledger corrupted")
)
