package juror_repo

import (
	"context"
	"fmt"

	"arbitron/internal/domain/juror"
	"arbitron/internal/domain/money"
	"arbitron/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var jurorColumns = []string{
	"account", "pub_key", "tier", "stake", "income", "currency",
	"correctness_rate", "is_malicious", "profile", "registered_at", "updated_at",
}

// PgJurorRepo is the registry store used by the juror service directly.
type PgJurorRepo struct {
	pg *postgres.Postgres
	repo
}

var _ juror.Repo = (*PgJurorRepo)(nil)

func NewPgJurorRepo(pg *postgres.Postgres) *PgJurorRepo {
	return &PgJurorRepo{
		pg:   pg,
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

func (r *PgJurorRepo) InTransaction(ctx context.Context, fn func(tx juror.TxRepo) error) error {
	return r.pg.InTransaction(ctx, func(tx postgres.Executor) error {
		return fn(&repo{db: tx, builder: r.pg.Builder})
	})
}

// NewTx returns the registry bound to a running transaction, for use under
// the arbitration unit of work.
func NewTx(db postgres.Executor, builder squirrel.StatementBuilderType) juror.TxRepo {
	return &repo{db: db, builder: builder}
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) GetJuror(ctx context.Context, account string) (*juror.Juror, error) {
	sql, args, err := r.builder.Select(jurorColumns...).
		From("jurors").
		Where(squirrel.Eq{"account": account}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get juror query: %w", err)
	}

	j, err := scanJuror(r.db.QueryRow(ctx, sql, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get juror: %w", err)
	}
	return j, nil
}

func (r *repo) CreateJuror(ctx context.Context, j juror.Juror) error {
	sql, args, err := r.builder.Insert("jurors").
		Columns(jurorColumns...).
		Values(j.Account, j.PubKey, j.Tier, j.Stake.Amount, j.Income.Amount,
			j.Stake.Currency, j.CorrectnessRate, j.IsMalicious, j.Profile,
			j.RegisteredAt, j.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert juror query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return fmt.Errorf("juror %s: %w", j.Account, juror.ErrAlreadyRegistered)
	}
	if err != nil {
		return fmt.Errorf("create juror: %w", err)
	}
	return nil
}

func (r *repo) UpdateJuror(ctx context.Context, j juror.Juror) error {
	sql, args, err := r.builder.Update("jurors").
		Set("pub_key", j.PubKey).
		Set("tier", j.Tier).
		Set("stake", j.Stake.Amount).
		Set("income", j.Income.Amount).
		Set("correctness_rate", j.CorrectnessRate).
		Set("is_malicious", j.IsMalicious).
		Set("profile", j.Profile).
		Set("updated_at", j.UpdatedAt).
		Where(squirrel.Eq{"account": j.Account}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update juror query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update juror: %w", err)
	}
	return nil
}

func (r *repo) ListEligible(ctx context.Context, exclude []string, professionalOnly bool) ([]juror.Juror, error) {
	query := r.builder.Select(jurorColumns...).
		From("jurors").
		Where(squirrel.Eq{"is_malicious": false}).
		OrderBy("account")

	if len(exclude) > 0 {
		query = query.Where(squirrel.NotEq{"account": exclude})
	}
	if professionalOnly {
		query = query.Where(squirrel.Eq{"tier": juror.TierProfessional})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build eligible jurors query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible jurors: %w", err)
	}
	defer rows.Close()

	var jurors []juror.Juror
	for rows.Next() {
		j, err := scanJuror(rows)
		if err != nil {
			return nil, fmt.Errorf("scan juror row: %w", err)
		}
		jurors = append(jurors, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate juror rows: %w", err)
	}
	return jurors, nil
}

func (r *repo) CreditIncome(ctx context.Context, account string, amount money.Money) error {
	sql, args, err := r.builder.Update("jurors").
		Set("income", squirrel.Expr("income + ?", amount.Amount)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"account": account}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build credit income query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("credit juror income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("juror %s: %w", account, juror.ErrJurorNotFound)
	}
	return nil
}

func scanJuror(row pgx.Row) (*juror.Juror, error) {
	var j juror.Juror
	var stake, income int64
	var currency string
	err := row.Scan(&j.Account, &j.PubKey, &j.Tier, &stake, &income, &currency,
		&j.CorrectnessRate, &j.IsMalicious, &j.Profile, &j.RegisteredAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Stake = money.New(stake, currency)
	j.Income = money.New(income, currency)
	return &j, nil
}
