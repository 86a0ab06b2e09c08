package catalog_repo

import (
	"context"
	"fmt"

	"arbitron/internal/domain/catalog"
	"arbitron/internal/domain/money"
	"arbitron/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Repo reads the marketplace catalog and slashes provider stakes during
// settlement.
type Repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ catalog.TxRepo = (*Repo)(nil)

func NewPgCatalogRepo(pg *postgres.Postgres) *Repo {
	return &Repo{db: pg.Pool, builder: pg.Builder}
}

func NewTx(db postgres.Executor, builder squirrel.StatementBuilderType) *Repo {
	return &Repo{db: db, builder: builder}
}

func (r *Repo) GetService(ctx context.Context, serviceID string) (*catalog.Service, error) {
	sql, args, err := r.builder.Select("id", "status").
		From("services").
		Where(squirrel.Eq{"id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get service query: %w", err)
	}

	var svc catalog.Service
	err = r.db.QueryRow(ctx, sql, args...).Scan(&svc.ID, &svc.Status)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &svc, nil
}

func (r *Repo) ProviderStakes(ctx context.Context, serviceID string) ([]catalog.ProviderStake, error) {
	sql, args, err := r.builder.Select("service_id", "account", "stake", "currency").
		From("provider_stakes").
		Where(squirrel.Eq{"service_id": serviceID}).
		OrderBy("account").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build provider stakes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query provider stakes: %w", err)
	}
	defer rows.Close()

	var stakes []catalog.ProviderStake
	for rows.Next() {
		var ps catalog.ProviderStake
		var amount int64
		var currency string
		if err := rows.Scan(&ps.ServiceID, &ps.Account, &amount, &currency); err != nil {
			return nil, fmt.Errorf("scan provider stake row: %w", err)
		}
		ps.Stake = money.New(amount, currency)
		stakes = append(stakes, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider stake rows: %w", err)
	}
	return stakes, nil
}

// SlashServiceStake reads the stake under the row lock and zeroes it. Runs
// inside the settlement transaction.
func (r *Repo) SlashServiceStake(ctx context.Context, serviceID, account string) (money.Money, error) {
	sql, args, err := r.builder.Select("stake", "currency").
		From("provider_stakes").
		Where(squirrel.Eq{"service_id": serviceID, "account": account}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return money.Money{}, fmt.Errorf("build stake lookup query: %w", err)
	}

	var amount int64
	var currency string
	err = r.db.QueryRow(ctx, sql, args...).Scan(&amount, &currency)
	if err == pgx.ErrNoRows {
		return money.Money{}, fmt.Errorf("provider %s on service %s: %w", account, serviceID, catalog.ErrUnknownService)
	}
	if err != nil {
		return money.Money{}, fmt.Errorf("lookup provider stake: %w", err)
	}

	sql, args, err = r.builder.Update("provider_stakes").
		Set("stake", 0).
		Where(squirrel.Eq{"service_id": serviceID, "account": account}).
		ToSql()
	if err != nil {
		return money.Money{}, fmt.Errorf("build slash stake query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return money.Money{}, fmt.Errorf("slash provider stake: %w", err)
	}

	return money.New(amount, currency), nil
}
