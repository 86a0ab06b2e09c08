package arbitration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/juror"
	"arbitron/pkg/pointers"
)

// Full lifecycle: complaint, respond, panel fill, votes, reappeal window
// expires, settlement. Checks the 80/20 split, service-stake slashing and
// juror correctness scoring in one pass.
func TestSettlement_ApplicantWins(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.seedService("prov-1")
	env.seedJurors(juror.TierProfessional, "j1", "j2", "j3", "j4", "j5")

	c := env.fileComplaint(t, "alice", 100)
	require.NoError(t, env.svc.RespondToCase(ctx, RespondCmd{CaseID: c.ID, Responder: "prov-1"}))

	panel := env.currentRound(t, c.ID).Invited
	require.Len(t, panel, 3)
	for _, account := range panel {
		require.NoError(t, env.svc.RespondAsJuror(ctx, JoinRoundCmd{CaseID: c.ID, Juror: account, Stake: utk(10)}))
	}

	// Two votes for the applicant clear the quorum of 1 and tally; the
	// third juror never votes.
	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: panel[0], Vote: 1}))
	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: panel[1], Vote: 1}))

	require.True(t, env.currentRound(t, c.ID).Tallied())
	require.NoError(t, env.fire(t, c.ID, TimerReappealWindow))

	state := env.caseState(t, c.ID)
	assert.Equal(t, StepReappealTimeoutEnded, state.Step)
	assert.Equal(t, ResultApplicantWins, state.FinalResult)
	assert.Equal(t, WinnerConsumer, state.FinalWinner)

	// Slashed pool is the 500 service stake; respondent escrow is empty.
	// 400 dividend to the only winning account, 100 fee split three ways
	// at 33 each with the remainder retained.
	assert.Equal(t, int64(0), env.db.stakes[testService][0].Stake.Amount)

	entry, _ := env.db.GetEntry(ctx, c.ID, "alice")
	require.NotNil(t, entry)
	assert.Equal(t, int64(500), entry.Balance.Amount)
	assert.Equal(t, int64(400), entry.Income.Amount)

	for _, account := range panel {
		assert.Equal(t, int64(33), env.db.jurors[account].Income.Amount, "juror %s fee share", account)
	}

	// Voters matched the outcome, the silent juror scored zero.
	for _, account := range panel[:2] {
		j := env.db.jurors[account]
		assert.Equal(t, float64(1), j.CorrectnessRate)
		assert.False(t, j.IsMalicious)
	}
	silent := env.db.jurors[panel[2]]
	assert.Equal(t, float64(0), silent.CorrectnessRate)
	assert.True(t, silent.IsMalicious)

	assert.Contains(t, env.db.eventKinds(c.ID), CaseEventSettled)
}

func TestSettlement_RespondentWins(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.seedService("prov-1")
	panel := []string{"j1", "j2", "j3"}
	env.seedJurors(juror.TierProfessional, panel...)
	c := seedStartedCase(env, 3, panel, MethodMultiRound)

	require.NoError(t, env.db.CreateEntry(ctx, escrow.StakeEntry{
		CaseID: c.ID, Account: "alice", Side: escrow.SideApplicant,
		Balance: utk(100), Income: utk(0), UpdatedAt: env.clock.Now(),
	}))
	require.NoError(t, env.db.CreateEntry(ctx, escrow.StakeEntry{
		CaseID: c.ID, Account: "prov-1", Side: escrow.SideRespondent,
		Balance: utk(40), Income: utk(0), UpdatedAt: env.clock.Now(),
	}))

	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j1", Vote: 0}))
	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j2", Vote: 0}))
	require.NoError(t, env.fire(t, c.ID, TimerReappealWindow))

	state := env.caseState(t, c.ID)
	assert.Equal(t, ResultRespondentWins, state.FinalResult)
	assert.Equal(t, WinnerProvider, state.FinalWinner)

	// The applicant side is slashed, the provider keeps the service stake.
	applicant, _ := env.db.GetEntry(ctx, c.ID, "alice")
	require.NotNil(t, applicant)
	assert.Equal(t, int64(0), applicant.Balance.Amount)
	assert.Equal(t, int64(500), env.db.stakes[testService][0].Stake.Amount)

	// 100 slashed: 80 dividend to prov-1, 20 fee at 6 per juror.
	respondent, _ := env.db.GetEntry(ctx, c.ID, "prov-1")
	require.NotNil(t, respondent)
	assert.Equal(t, int64(120), respondent.Balance.Amount)
	assert.Equal(t, int64(80), respondent.Income.Amount)
	for _, account := range panel {
		assert.Equal(t, int64(6), env.db.jurors[account].Income.Amount)
	}

	// Conservation: dividend plus fee never exceeds what was slashed.
	paid := respondent.Income.Amount
	for _, account := range panel {
		paid += env.db.jurors[account].Income.Amount
	}
	assert.LessOrEqual(t, paid, int64(100))
}

func TestSettlement_DividendSplitAcrossApplicants(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.seedService("prov-1")
	panel := []string{"j1", "j2", "j3"}
	env.seedJurors(juror.TierProfessional, panel...)
	c := seedStartedCase(env, 3, panel, MethodMultiRound)
	c2 := env.db.cases[c.ID]
	c2.Applicants = []string{"alice", "bob", "carol"}
	env.db.cases[c.ID] = c2

	for i, account := range c2.Applicants {
		require.NoError(t, env.db.CreateEntry(ctx, escrow.StakeEntry{
			CaseID: c.ID, Account: account, Side: escrow.SideApplicant,
			Balance: utk(int64(50 * (i + 1))), Income: utk(0), UpdatedAt: env.clock.Now(),
		}))
	}

	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j1", Vote: 1}))
	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j2", Vote: 1}))
	require.NoError(t, env.fire(t, c.ID, TimerReappealWindow))

	// 500 service stake slashed, 400 dividend over three winners is 133
	// each by floor division, independent of their stakes.
	for _, account := range c2.Applicants {
		entry, _ := env.db.GetEntry(ctx, c.ID, account)
		require.NotNil(t, entry)
		assert.Equal(t, int64(133), entry.Income.Amount, "dividend share of %s", account)
	}
}

func TestSettlement_RefusesUndetermined(t *testing.T) {
	env := newTestEnv(t)
	env.seedService("prov-1")
	c := seedStartedCase(env, 3, []string{"j1"}, MethodMultiRound)

	err := env.svc.settleCase(context.Background(), env.db.stores(), &effects{}, pointers.Ptr(env.db.cases[c.ID]), nil)
	assert.Error(t, err)
}

// Crowd cases settle straight off the tally with no reappeal window.
func TestSettlement_CrowdTalliesStraightToEnd(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.seedService("prov-1")
	panel := []string{"j1", "j2", "j3", "j4", "j5"}
	env.seedJurors(juror.TierAmateur, panel...)
	c := seedStartedCase(env, 5, panel, MethodCrowd)

	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j1", Vote: 1}))
	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j2", Vote: 1}))
	require.NoError(t, env.svc.UploadVote(ctx, VoteCmd{CaseID: c.ID, Juror: "j3", Vote: 1}))

	state := env.caseState(t, c.ID)
	assert.Equal(t, StepEnded, state.Step)
	assert.Equal(t, ResultApplicantWins, state.FinalResult)

	_, windowArmed := env.sched.pending(TimerFire{CaseID: c.ID, Kind: TimerReappealWindow}.Key())
	assert.False(t, windowArmed)
	assert.Contains(t, env.db.eventKinds(c.ID), CaseEventSettled)
}

func TestDrawJurorsProperties(t *testing.T) {
	pool := make([]juror.Juror, 10)
	for i := range pool {
		pool[i] = juror.Juror{Account: string(rune('a' + i))}
	}

	env := newTestEnv(t)
	chosen := drawJurors(env.svc.rng, pool, 4)
	require.Len(t, chosen, 4)
	seen := map[string]struct{}{}
	for _, account := range chosen {
		_, dup := seen[account]
		assert.False(t, dup, "account %s drawn twice", account)
		seen[account] = struct{}{}
	}

	// Asking for more than the pool holds returns the whole pool.
	all := drawJurors(env.svc.rng, pool, 15)
	assert.Len(t, all, 10)
}

func TestRequiredForSeq(t *testing.T) {
	assert.Equal(t, 3, RequiredForSeq(1))
	assert.Equal(t, 5, RequiredForSeq(2))
	assert.Equal(t, 9, RequiredForSeq(3))
	assert.Equal(t, 17, RequiredForSeq(4))
}
