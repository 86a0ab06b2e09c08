package escrow

import (
	"context"
	"fmt"
	"time"

	"arbitron/internal/domain/money"
)

// Deposit credits amount to the account's entry in the case, creating the
// entry on first use. The entry's side is fixed by the first deposit.
func Deposit(ctx context.Context, repo TxRepo, caseID, account string, amount money.Money, side Side) error {
	if !amount.IsPositive() {
		return fmt.Errorf("deposit %s for %s: amount must be positive", amount, account)
	}

	entry, err := repo.GetEntry(ctx, caseID, account)
	if err != nil {
		return fmt.Errorf("get escrow entry: %w", err)
	}

	if entry == nil {
		newEntry := StakeEntry{
			CaseID:    caseID,
			Account:   account,
			Side:      side,
			Balance:   amount,
			Income:    money.New(0, amount.Currency),
			Claimed:   money.New(0, amount.Currency),
			UpdatedAt: time.Now().UTC(),
		}
		if err := repo.CreateEntry(ctx, newEntry); err != nil {
			return fmt.Errorf("create escrow entry: %w", err)
		}
		return nil
	}

	balance, err := entry.Balance.Add(amount)
	if err != nil {
		return err
	}
	entry.Balance = balance
	entry.UpdatedAt = time.Now().UTC()

	if err := repo.UpdateEntry(ctx, *entry); err != nil {
		return fmt.Errorf("update escrow entry: %w", err)
	}
	return nil
}

// Debit removes amount from the account's entry, failing with
// ErrInsufficientBalance when the balance does not cover it.
func Debit(ctx context.Context, repo TxRepo, caseID, account string, amount money.Money) error {
	entry, err := repo.GetEntry(ctx, caseID, account)
	if err != nil {
		return fmt.Errorf("get escrow entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("debit %s from %s in case %s: %w", amount, account, caseID, ErrEntryNotFound)
	}

	if entry.Balance.Amount < 0 {
		return fmt.Errorf("entry %s/%s has negative balance %s: %w", caseID, account, entry.Balance, ErrLedgerCorrupted)
	}
	if entry.Balance.Amount < amount.Amount {
		return fmt.Errorf("debit %s, balance %s: %w", amount, entry.Balance, ErrInsufficientBalance)
	}

	balance, err := entry.Balance.Sub(amount)
	if err != nil {
		return err
	}
	entry.Balance = balance
	entry.UpdatedAt = time.Now().UTC()

	if err := repo.UpdateEntry(ctx, *entry); err != nil {
		return fmt.Errorf("update escrow entry: %w", err)
	}
	return nil
}

// BalancesBySide returns the accounts on one side of a case and their summed
// stake, used by settlement to compute slash and award pools.
func BalancesBySide(ctx context.Context, repo TxRepo, caseID string, side Side, currency string) (SidePool, error) {
	entries, err := repo.EntriesBySide(ctx, caseID, side)
	if err != nil {
		return SidePool{}, fmt.Errorf("entries by side: %w", err)
	}

	pool := SidePool{Total: money.New(0, currency)}
	for _, e := range entries {
		if e.Balance.Amount < 0 {
			return SidePool{}, fmt.Errorf("entry %s/%s has negative balance %s: %w", caseID, e.Account, e.Balance, ErrLedgerCorrupted)
		}
		pool.Accounts = append(pool.Accounts, e.Account)
		total, err := pool.Total.Add(e.Balance)
		if err != nil {
			return SidePool{}, err
		}
		pool.Total = total
	}
	return pool, nil
}

// ZeroSide zeroes every balance on the given side of a case. Settlement calls
// it exactly once for the losing side after the slash pool was computed.
func ZeroSide(ctx context.Context, repo TxRepo, caseID string, side Side) error {
	entries, err := repo.EntriesBySide(ctx, caseID, side)
	if err != nil {
		return fmt.Errorf("entries by side: %w", err)
	}

	for _, e := range entries {
		e.Balance = money.New(0, e.Balance.Currency)
		e.UpdatedAt = time.Now().UTC()
		if err := repo.UpdateEntry(ctx, e); err != nil {
			return fmt.Errorf("zero escrow entry %s: %w", e.Account, err)
		}
	}
	return nil
}

// Award credits a dividend into the account's escrow balance and cumulative
// income.
func Award(ctx context.Context, repo TxRepo, caseID, account string, amount money.Money) error {
	entry, err := repo.GetEntry(ctx, caseID, account)
	if err != nil {
		return fmt.Errorf("get escrow entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("award %s to %s in case %s: %w", amount, account, caseID, ErrEntryNotFound)
	}

	balance, err := entry.Balance.Add(amount)
	if err != nil {
		return err
	}
	income, err := entry.Income.Add(amount)
	if err != nil {
		return err
	}
	entry.Balance = balance
	entry.Income = income
	entry.UpdatedAt = time.Now().UTC()

	if err := repo.UpdateEntry(ctx, *entry); err != nil {
		return fmt.Errorf("update escrow entry: %w", err)
	}
	return nil
}
