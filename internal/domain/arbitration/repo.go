package arbitration

import (
	"context"

	"arbitron/internal/domain/catalog"
	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/juror"
)

// TxCaseRepo is the case store as seen from inside a transaction. GetCase
// takes the case row lock, which totally orders transitions within a case.
type TxCaseRepo interface {
	GetCase(ctx context.Context, caseID string) (*Case, error)
	GetOpenCaseByService(ctx context.Context, serviceID string) (*Case, error)
	CreateCase(ctx context.Context, c Case) error
	UpdateCase(ctx context.Context, c Case) error

	GetRound(ctx context.Context, roundID string) (*Round, error)
	// CurrentRound returns the case's round with the highest sequence number.
	CurrentRound(ctx context.Context, caseID string) (*Round, error)
	CreateRound(ctx context.Context, r Round) error
	UpdateRound(ctx context.Context, r Round) error

	CreateVote(ctx context.Context, v Vote) error
	VotesByRound(ctx context.Context, roundID string) ([]Vote, error)
	VotesByCase(ctx context.Context, caseID string) ([]Vote, error)

	CreateEvidence(ctx context.Context, e Evidence) error

	GetOpenAppealByService(ctx context.Context, serviceID string) (*Appeal, error)
	CreateAppeal(ctx context.Context, a Appeal) error
	UpdateAppeal(ctx context.Context, a Appeal) error
}

// Stores bundles every store a case transition may touch. All of them run on
// the same underlying transaction, so a transition and its fund movements
// commit or roll back together.
type Stores struct {
	Cases   TxCaseRepo
	Escrow  escrow.TxRepo
	Jurors  juror.TxRepo
	Catalog catalog.TxRepo
	Events  EventStore
}

type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Stores) error) error
}

// Reader serves plain case queries outside a transaction.
type Reader interface {
	GetCase(ctx context.Context, caseID string) (*Case, error)
	RoundsByCase(ctx context.Context, caseID string) ([]Round, error)
	ListCases(ctx context.Context, query CasesQuery) ([]Case, error)
}

type CasesQuery struct {
	ServiceIDs []string `json:"service_ids" form:"service_ids,omitempty"`
	Steps      []Step   `json:"steps" form:"steps,omitempty"`

	Limit   int    `json:"limit" form:"limit"`
	Cursor  string `json:"cursor" form:"cursor"`
	SortAsc bool   `json:"sort_asc" form:"sort_asc"`
}
