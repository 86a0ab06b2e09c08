package juror

import (
	"context"
	"fmt"
	"time"

	"arbitron/internal/domain/bank"
	"arbitron/internal/domain/money"
)

type Service struct {
	repo      Repo
	transfers bank.Transferer
	treasury  string
	minStake  money.Money
}

func NewService(repo Repo, transfers bank.Transferer, treasury string, minStake money.Money) *Service {
	return &Service{
		repo:      repo,
		transfers: transfers,
		treasury:  treasury,
		minStake:  minStake,
	}
}

// Register adds an account to the juror registry and moves its registration
// stake to the arbitration treasury.
func (s *Service) Register(ctx context.Context, reg Registration) (*Juror, error) {
	if reg.Account == "" || reg.PubKey == "" {
		return nil, fmt.Errorf("account and pub_key are required")
	}
	if reg.Tier != TierProfessional && reg.Tier != TierAmateur {
		return nil, fmt.Errorf("unknown juror tier %q", reg.Tier)
	}
	if reg.Stake.Currency != s.minStake.Currency || reg.Stake.Amount < s.minStake.Amount {
		return nil, fmt.Errorf("stake %s, minimum %s: %w", reg.Stake, s.minStake, ErrStakeTooLow)
	}

	now := time.Now().UTC()
	created := Juror{
		Account:         reg.Account,
		PubKey:          reg.PubKey,
		Tier:            reg.Tier,
		Stake:           reg.Stake,
		Income:          money.New(0, reg.Stake.Currency),
		CorrectnessRate: 1,
		Profile:         reg.Profile,
		RegisteredAt:    now,
		UpdatedAt:       now,
	}

	err := s.repo.InTransaction(ctx, func(tx TxRepo) error {
		existing, err := tx.GetJuror(ctx, reg.Account)
		if err != nil {
			return fmt.Errorf("get juror: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("account %s: %w", reg.Account, ErrAlreadyRegistered)
		}

		if err := s.transfers.Transfer(ctx, reg.Account, s.treasury, reg.Stake, "juror registration stake"); err != nil {
			return fmt.Errorf("transfer registration stake: %w", err)
		}

		if err := tx.CreateJuror(ctx, created); err != nil {
			return fmt.Errorf("create juror: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) GetJuror(ctx context.Context, account string) (*Juror, error) {
	j, err := s.repo.GetJuror(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("get juror: %w", err)
	}
	if j == nil {
		return nil, fmt.Errorf("account %s: %w", account, ErrJurorNotFound)
	}
	return j, nil
}

// ScoreCase records each participant's correctness for a settled case and
// flags jurors whose rate fell below MaliciousThreshold. The rate is taken
// over the case being settled, so one badly-voted case bars a juror until a
// later case clears them. It runs inside the case settlement transaction.
func ScoreCase(ctx context.Context, tx TxRepo, scores []CaseScore) error {
	for _, score := range scores {
		j, err := tx.GetJuror(ctx, score.Account)
		if err != nil {
			return fmt.Errorf("get juror %s: %w", score.Account, err)
		}
		if j == nil {
			return fmt.Errorf("score juror %s: %w", score.Account, ErrJurorNotFound)
		}

		j.CorrectnessRate = score.Rate()
		j.IsMalicious = j.CorrectnessRate < MaliciousThreshold
		j.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateJuror(ctx, *j); err != nil {
			return fmt.Errorf("update juror %s: %w", score.Account, err)
		}
	}
	return nil
}
