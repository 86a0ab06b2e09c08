package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbitron/internal/domain/money"
)

type memRepo struct {
	entries map[string]StakeEntry // caseID/account
}

func newMemRepo() *memRepo {
	return &memRepo{entries: make(map[string]StakeEntry)}
}

func (m *memRepo) key(caseID, account string) string { return caseID + "/" + account }

func (m *memRepo) GetEntry(_ context.Context, caseID, account string) (*StakeEntry, error) {
	e, ok := m.entries[m.key(caseID, account)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memRepo) CreateEntry(_ context.Context, entry StakeEntry) error {
	m.entries[m.key(entry.CaseID, entry.Account)] = entry
	return nil
}

func (m *memRepo) UpdateEntry(_ context.Context, entry StakeEntry) error {
	m.entries[m.key(entry.CaseID, entry.Account)] = entry
	return nil
}

func (m *memRepo) EntriesBySide(_ context.Context, caseID string, side Side) ([]StakeEntry, error) {
	var out []StakeEntry
	for _, e := range m.entries {
		if e.CaseID == caseID && e.Side == side {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates entry on first deposit", func(t *testing.T) {
		repo := newMemRepo()

		err := Deposit(ctx, repo, "case-1", "alice", money.New(100, "UTK"), SideApplicant)
		require.NoError(t, err)

		entry, err := repo.GetEntry(ctx, "case-1", "alice")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, int64(100), entry.Balance.Amount)
		assert.Equal(t, SideApplicant, entry.Side)
	})

	t.Run("accumulates on repeated deposits", func(t *testing.T) {
		repo := newMemRepo()

		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(100, "UTK"), SideApplicant))
		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(50, "UTK"), SideApplicant))

		entry, err := repo.GetEntry(ctx, "case-1", "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(150), entry.Balance.Amount)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		repo := newMemRepo()

		err := Deposit(ctx, repo, "case-1", "alice", money.New(0, "UTK"), SideApplicant)
		assert.Error(t, err)
	})

	t.Run("same account in two cases is two entries", func(t *testing.T) {
		repo := newMemRepo()

		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(100, "UTK"), SideApplicant))
		require.NoError(t, Deposit(ctx, repo, "case-2", "alice", money.New(30, "UTK"), SideRespondent))

		e1, _ := repo.GetEntry(ctx, "case-1", "alice")
		e2, _ := repo.GetEntry(ctx, "case-2", "alice")
		assert.Equal(t, int64(100), e1.Balance.Amount)
		assert.Equal(t, int64(30), e2.Balance.Amount)
	})
}

func TestDebit(t *testing.T) {
	ctx := context.Background()

	t.Run("debits within balance", func(t *testing.T) {
		repo := newMemRepo()
		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(100, "UTK"), SideApplicant))

		err := Debit(ctx, repo, "case-1", "alice", money.New(40, "UTK"))
		require.NoError(t, err)

		entry, _ := repo.GetEntry(ctx, "case-1", "alice")
		assert.Equal(t, int64(60), entry.Balance.Amount)
	})

	t.Run("fails on insufficient balance", func(t *testing.T) {
		repo := newMemRepo()
		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(10, "UTK"), SideApplicant))

		err := Debit(ctx, repo, "case-1", "alice", money.New(40, "UTK"))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("fails on missing entry", func(t *testing.T) {
		repo := newMemRepo()

		err := Debit(ctx, repo, "case-1", "alice", money.New(40, "UTK"))
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("reports corrupted ledger on negative balance", func(t *testing.T) {
		repo := newMemRepo()
		repo.entries["case-1/alice"] = StakeEntry{
			CaseID:  "case-1",
			Account: "alice",
			Side:    SideApplicant,
			Balance: money.New(-5, "UTK"),
		}

		err := Debit(ctx, repo, "case-1", "alice", money.New(1, "UTK"))
		assert.ErrorIs(t, err, ErrLedgerCorrupted)
	})
}

func TestBalancesBySide(t *testing.T) {
	ctx := context.Background()

	t.Run("sums one side only", func(t *testing.T) {
		repo := newMemRepo()
		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(100, "UTK"), SideApplicant))
		require.NoError(t, Deposit(ctx, repo, "case-1", "bob", money.New(70, "UTK"), SideApplicant))
		require.NoError(t, Deposit(ctx, repo, "case-1", "provider", money.New(500, "UTK"), SideRespondent))

		pool, err := BalancesBySide(ctx, repo, "case-1", SideApplicant, "UTK")
		require.NoError(t, err)
		assert.Equal(t, int64(170), pool.Total.Amount)
		assert.Len(t, pool.Accounts, 2)
	})

	t.Run("empty side yields zero pool", func(t *testing.T) {
		repo := newMemRepo()

		pool, err := BalancesBySide(ctx, repo, "case-1", SideRespondent, "UTK")
		require.NoError(t, err)
		assert.True(t, pool.Total.IsZero())
		assert.Empty(t, pool.Accounts)
	})
}

func TestZeroSideAndAward(t *testing.T) {
	ctx := context.Background()

	t.Run("zeroes the losing side and awards the winner", func(t *testing.T) {
		repo := newMemRepo()
		require.NoError(t, Deposit(ctx, repo, "case-1", "alice", money.New(100, "UTK"), SideApplicant))
		require.NoError(t, Deposit(ctx, repo, "case-1", "provider", money.New(500, "UTK"), SideRespondent))

		require.NoError(t, ZeroSide(ctx, repo, "case-1", SideRespondent))
		require.NoError(t, Award(ctx, repo, "case-1", "alice", money.New(400, "UTK")))

		loser, _ := repo.GetEntry(ctx, "case-1", "provider")
		winner, _ := repo.GetEntry(ctx, "case-1", "alice")
		assert.True(t, loser.Balance.IsZero())
		assert.Equal(t, int64(500), winner.Balance.Amount)
		assert.Equal(t, int64(400), winner.Income.Amount)
	})

	t.Run("award to missing entry fails", func(t *testing.T) {
		repo := newMemRepo()

		err := Award(ctx, repo, "case-1", "ghost", money.New(10, "UTK"))
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}
