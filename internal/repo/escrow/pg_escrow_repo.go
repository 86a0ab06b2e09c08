package escrow_repo

import (
	"context"
	"fmt"

	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/money"
	"arbitron/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var entryColumns = []string{
	"case_id", "account", "side", "balance", "income", "claimed", "currency", "updated_at",
}

// Repo is the escrow ledger store. All calls run on the executor they were
// built with, which inside the arbitration unit of work is the shared
// transaction.
type Repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ escrow.TxRepo = (*Repo)(nil)

func NewTx(db postgres.Executor, builder squirrel.StatementBuilderType) *Repo {
	return &Repo{db: db, builder: builder}
}

func (r *Repo) GetEntry(ctx context.Context, caseID, account string) (*escrow.StakeEntry, error) {
	sql, args, err := r.builder.Select(entryColumns...).
		From("escrow_entries").
		Where(squirrel.Eq{"case_id": caseID, "account": account}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get entry query: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRow(ctx, sql, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get escrow entry: %w", err)
	}
	return entry, nil
}

func (r *Repo) CreateEntry(ctx context.Context, entry escrow.StakeEntry) error {
	sql, args, err := r.builder.Insert("escrow_entries").
		Columns(entryColumns...).
		Values(entry.CaseID, entry.Account, entry.Side,
			entry.Balance.Amount, entry.Income.Amount, entry.Claimed.Amount,
			entry.Balance.Currency, entry.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert entry query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("create escrow entry: %w", err)
	}
	return nil
}

func (r *Repo) UpdateEntry(ctx context.Context, entry escrow.StakeEntry) error {
	sql, args, err := r.builder.Update("escrow_entries").
		Set("balance", entry.Balance.Amount).
		Set("income", entry.Income.Amount).
		Set("claimed", entry.Claimed.Amount).
		Set("updated_at", entry.UpdatedAt).
		Where(squirrel.Eq{"case_id": entry.CaseID, "account": entry.Account}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update entry query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update escrow entry: %w", err)
	}
	return nil
}

func (r *Repo) EntriesBySide(ctx context.Context, caseID string, side escrow.Side) ([]escrow.StakeEntry, error) {
	sql, args, err := r.builder.Select(entryColumns...).
		From("escrow_entries").
		Where(squirrel.Eq{"case_id": caseID, "side": side}).
		OrderBy("account").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entries query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query escrow entries: %w", err)
	}
	defer rows.Close()

	var entries []escrow.StakeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan escrow entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escrow entry rows: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (*escrow.StakeEntry, error) {
	var e escrow.StakeEntry
	var balance, income, claimed int64
	var currency string
	err := row.Scan(&e.CaseID, &e.Account, &e.Side, &balance, &income, &claimed, &currency, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Balance = money.New(balance, currency)
	e.Income = money.New(income, currency)
	e.Claimed = money.New(claimed, currency)
	return &e, nil
}
