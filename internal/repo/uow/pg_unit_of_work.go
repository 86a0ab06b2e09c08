// Package uow binds every store a case transition touches to one postgres
// transaction.
package uow

import (
	"context"

	"arbitron/internal/domain/arbitration"
	case_repo "arbitron/internal/repo/arbcase"
	caseevent_repo "arbitron/internal/repo/caseevent"
	catalog_repo "arbitron/internal/repo/catalog"
	escrow_repo "arbitron/internal/repo/escrow"
	juror_repo "arbitron/internal/repo/juror"
	"arbitron/pkg/postgres"
)

type PgUnitOfWork struct {
	pg *postgres.Postgres
}

var _ arbitration.UnitOfWork = (*PgUnitOfWork)(nil)

func New(pg *postgres.Postgres) *PgUnitOfWork {
	return &PgUnitOfWork{pg: pg}
}

// Do runs fn with all stores bound to one transaction, committing on nil
// and rolling back on error.
func (u *PgUnitOfWork) Do(ctx context.Context, fn func(tx arbitration.Stores) error) error {
	return u.pg.InTransaction(ctx, func(tx postgres.Executor) error {
		return fn(arbitration.Stores{
			Cases:   case_repo.NewTx(tx, u.pg.Builder),
			Escrow:  escrow_repo.NewTx(tx, u.pg.Builder),
			Jurors:  juror_repo.NewTx(tx, u.pg.Builder),
			Catalog: catalog_repo.NewTx(tx, u.pg.Builder),
			Events:  caseevent_repo.NewTx(tx, u.pg.Builder),
		})
	})
}
