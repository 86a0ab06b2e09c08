package juror

import (
	"context"

	"arbitron/internal/domain/money"
)

//go:generate mockgen -source repo.go -destination mock_repo.go -package juror

// TxRepo is the juror registry as seen from inside a transaction. Case
// settlement reuses it under the arbitration unit of work.
type TxRepo interface {
	GetJuror(ctx context.Context, account string) (*Juror, error)
	CreateJuror(ctx context.Context, j Juror) error
	UpdateJuror(ctx context.Context, j Juror) error
	// ListEligible returns non-malicious jurors outside the exclude set,
	// restricted to the professional tier when professionalOnly is set.
	ListEligible(ctx context.Context, exclude []string, professionalOnly bool) ([]Juror, error)
	CreditIncome(ctx context.Context, account string, amount money.Money) error
}

type Repo interface {
	TxRepo
	InTransaction(ctx context.Context, fn func(tx TxRepo) error) error
}
