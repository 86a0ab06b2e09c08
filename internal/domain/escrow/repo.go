package escrow

import "context"

// TxRepo is the escrow store as seen from inside a case transaction.
type TxRepo interface {
	GetEntry(ctx context.Context, caseID, account string) (*StakeEntry, error)
	CreateEntry(ctx context.Context, entry StakeEntry) error
	UpdateEntry(ctx context.Context, entry StakeEntry) error
	EntriesBySide(ctx context.Context, caseID string, side Side) ([]StakeEntry, error)
}
