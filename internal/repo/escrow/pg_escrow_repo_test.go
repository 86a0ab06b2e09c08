package escrow_repo

import (
	"context"
	"testing"
	"time"

	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/money"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entrySelect = `SELECT case_id, account, side, balance, income, claimed, currency, updated_at FROM escrow_entries`

func entryRowColumns() []string {
	return []string{"case_id", "account", "side", "balance", "income", "claimed", "currency", "updated_at"}
}

func newTestRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewTx(mock, squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)), mock
}

func TestGetEntry(t *testing.T) {
	r, mock := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("should return the entry", func(t *testing.T) {
		rows := mock.NewRows(entryRowColumns()).
			AddRow("case-1", "alice", "applicant", int64(100), int64(0), int64(0), "UTK", now)

		mock.ExpectQuery(entrySelect + ` WHERE account = \$1 AND case_id = \$2`).
			WithArgs("alice", "case-1").
			WillReturnRows(rows)

		entry, err := r.GetEntry(ctx, "case-1", "alice")

		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, escrow.SideApplicant, entry.Side)
		assert.Equal(t, money.New(100, "UTK"), entry.Balance)
	})

	t.Run("should return nil when absent", func(t *testing.T) {
		mock.ExpectQuery(entrySelect).
			WithArgs("bob", "case-1").
			WillReturnRows(mock.NewRows(entryRowColumns()))

		entry, err := r.GetEntry(ctx, "case-1", "bob")

		require.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestCreateEntry(t *testing.T) {
	r, mock := newTestRepo(t)
	now := time.Now()

	entry := escrow.StakeEntry{
		CaseID:    "case-1",
		Account:   "alice",
		Side:      escrow.SideApplicant,
		Balance:   money.New(100, "UTK"),
		Income:    money.New(0, "UTK"),
		Claimed:   money.New(0, "UTK"),
		UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO escrow_entries`).
		WithArgs("case-1", "alice", escrow.SideApplicant, int64(100), int64(0), int64(0), "UTK", now).
		WillReturnResult(pgconn.NewCommandTag("INSERT 0 1"))

	require.NoError(t, r.CreateEntry(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntriesBySide(t *testing.T) {
	r, mock := newTestRepo(t)
	now := time.Now()

	rows := mock.NewRows(entryRowColumns()).
		AddRow("case-1", "alice", "applicant", int64(100), int64(0), int64(0), "UTK", now).
		AddRow("case-1", "bob", "applicant", int64(50), int64(0), int64(0), "UTK", now)

	mock.ExpectQuery(entrySelect + ` WHERE case_id = \$1 AND side = \$2 ORDER BY account`).
		WithArgs("case-1", escrow.SideApplicant).
		WillReturnRows(rows)

	entries, err := r.EntriesBySide(context.Background(), "case-1", escrow.SideApplicant)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Account)
	assert.Equal(t, money.New(50, "UTK"), entries[1].Balance)
}
