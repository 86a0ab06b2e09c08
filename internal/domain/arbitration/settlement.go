package arbitration

import (
	"context"
	"fmt"

	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/juror"
	"arbitron/internal/domain/money"
	"arbitron/pkg/metrics"
)

const dividendPercent = 80

// settleCase runs exactly once, inside the transaction that moved the case
// to a terminal step. It slashes the losing side, splits the pool 80/20
// between winning escrow accounts and the final round's jurors, and feeds
// the outcome back into juror correctness. Integer floor division keeps any
// remainder on the case account.
func (s *Service) settleCase(ctx context.Context, tx Stores, eff *effects, c *Case, finalRound *Round) error {
	if c.FinalResult == ResultUndetermined {
		return fmt.Errorf("case %s has no final result", c.ID)
	}

	losing := c.LosingSide()

	pool, err := escrow.BalancesBySide(ctx, tx.Escrow, c.ID, losing, s.cfg.Currency)
	if err != nil {
		return err
	}
	slashed := pool.Total.Amount

	// A losing respondent-provider additionally forfeits the service-level
	// stake.
	if losing == escrow.SideRespondent && c.IsRespondentProvider {
		stakes, err := tx.Catalog.ProviderStakes(ctx, c.ServiceID)
		if err != nil {
			return fmt.Errorf("get provider stakes: %w", err)
		}
		for _, ps := range stakes {
			taken, err := tx.Catalog.SlashServiceStake(ctx, c.ServiceID, ps.Account)
			if err != nil {
				return fmt.Errorf("slash service stake of %s: %w", ps.Account, err)
			}
			slashed += taken.Amount
		}
	}

	if err := escrow.ZeroSide(ctx, tx.Escrow, c.ID, losing); err != nil {
		return err
	}

	dividend := slashed * dividendPercent / 100
	fee := slashed - dividend

	winners, err := escrow.BalancesBySide(ctx, tx.Escrow, c.ID, c.WinningSide(), s.cfg.Currency)
	if err != nil {
		return err
	}
	if dividend > 0 && len(winners.Accounts) > 0 {
		share := dividend / int64(len(winners.Accounts))
		if share > 0 {
			for _, account := range winners.Accounts {
				if err := escrow.Award(ctx, tx.Escrow, c.ID, account, money.New(share, s.cfg.Currency)); err != nil {
					return err
				}
			}
		}
	}

	var feeJurors []string
	if finalRound != nil {
		feeJurors = finalRound.Jurors
	}
	if fee > 0 && len(feeJurors) > 0 {
		share := fee / int64(len(feeJurors))
		if share > 0 {
			for _, account := range feeJurors {
				if err := tx.Jurors.CreditIncome(ctx, account, money.New(share, s.cfg.Currency)); err != nil {
					return fmt.Errorf("credit juror fee to %s: %w", account, err)
				}
			}
		}
	}

	if err := s.scoreJurors(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
		return fmt.Errorf("update case: %w", err)
	}

	if err := s.appendEvent(ctx, tx, eff, c.ID, CaseEventSettled, map[string]any{
		"final_result": c.FinalResult,
		"final_winner": c.FinalWinner,
		"slashed":      slashed,
		"dividend":     dividend,
		"fee":          fee,
	}); err != nil {
		return err
	}

	metrics.CasesSettled.WithLabelValues(string(c.FinalResult)).Inc()
	s.log.InfoCtx(ctx, "case %s settled: %s, slashed %d %s", c.ID, c.FinalResult, slashed, s.cfg.Currency)
	return nil
}

// scoreJurors folds the case's votes into every participant's correctness
// rate. The winning vote value follows the final result, not the last
// round's raw tally, so defaulted judgments score too.
func (s *Service) scoreJurors(ctx context.Context, tx Stores, c *Case) error {
	if len(c.JurorAccounts) == 0 {
		return nil
	}

	votes, err := tx.Cases.VotesByCase(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("votes by case: %w", err)
	}

	winningVote := 0
	if c.FinalResult == ResultApplicantWins {
		winningVote = 1
	}

	scores := make([]juror.CaseScore, 0, len(c.JurorAccounts))
	for _, account := range c.JurorAccounts {
		score := juror.CaseScore{Account: account}
		for _, v := range votes {
			if v.Juror != account {
				continue
			}
			score.VotesCast++
			if v.Vote == winningVote {
				score.VotesCorrect++
			}
		}
		scores = append(scores, score)
	}

	if err := juror.ScoreCase(ctx, tx.Jurors, scores); err != nil {
		return fmt.Errorf("score jurors: %w", err)
	}
	return nil
}
