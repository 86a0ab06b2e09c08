package arbitration

import (
	"context"
	"fmt"

	"arbitron/pkg/metrics"
)

// HandleTimer is the single entry point for scheduled callbacks. Fires are
// dispatched on their kind tag; a fire whose guarded step has already been
// superseded is an expected no-op, not an error.
func (s *Service) HandleTimer(ctx context.Context, payload []byte) error {
	fire, err := ParseTimerFire(payload)
	if err != nil {
		return err
	}

	outcome := "applied"
	var eff effects
	err = s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}
		outcome = "applied"

		c, err := tx.Cases.GetCase(ctx, fire.CaseID)
		if err != nil {
			return fmt.Errorf("get case: %w", err)
		}
		if c == nil {
			outcome = "stale"
			s.log.DebugCtx(ctx, "timer %s fired for unknown case", fire.Key())
			return nil
		}

		applied, err := s.dispatchTimer(ctx, tx, &eff, c, fire)
		if err != nil {
			return err
		}
		if !applied {
			outcome = "stale"
			s.log.DebugCtx(ctx, "stale timer %s, case step %s", fire.Key(), c.Step)
			return nil
		}

		if err := s.appendEvent(ctx, tx, &eff, c.ID, CaseEventTimerFired, fire); err != nil {
			return err
		}
		return nil
	})
	metrics.TimerFires.WithLabelValues(string(fire.Kind), outcome).Inc()
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return s.shortfallResult(&eff)
}

func (s *Service) dispatchTimer(ctx context.Context, tx Stores, eff *effects, c *Case, fire TimerFire) (bool, error) {
	switch fire.Kind {
	case TimerRespAppeal:
		if c.Step != StepInit {
			return false, nil
		}
		return true, s.defaultJudgment(ctx, tx, eff, c)

	case TimerRespReappeal:
		if c.Step != StepReappeal {
			return false, nil
		}
		// Nobody re-responded; the reappeal closes and the next round
		// starts without a responder.
		if err := s.closeOpenAppeal(ctx, tx, c.ServiceID); err != nil {
			return false, err
		}
		return true, s.openNextRound(ctx, tx, eff, c, "")

	case TimerRespJuror:
		switch c.Step {
		case StepChoosingJurors, StepResponded, StepCrowdChoosingJurors, StepCrowdResponded:
		default:
			return false, nil
		}
		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return false, err
		}
		if err := s.selectJurors(ctx, tx, eff, c, r, r.RequiredJurors-len(r.Jurors)); err != nil {
			return false, err
		}
		if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
			return false, fmt.Errorf("update case: %w", err)
		}
		return true, nil

	case TimerUploadResult:
		if c.Step != StepStarted && c.Step != StepCrowdStarted {
			return false, nil
		}
		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return false, err
		}
		if r.Tallied() {
			return false, nil
		}
		votes, err := tx.Cases.VotesByRound(ctx, r.ID)
		if err != nil {
			return false, fmt.Errorf("votes by round: %w", err)
		}
		if err := s.tallyRound(ctx, tx, eff, c, r, votes); err != nil {
			return false, err
		}
		if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
			return false, fmt.Errorf("update case: %w", err)
		}
		return true, nil

	case TimerReappealWindow:
		if c.Step != StepStarted {
			return false, nil
		}
		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return false, err
		}
		if !r.Tallied() {
			return false, nil
		}
		s.finalize(c, *r, StepReappealTimeoutEnded)
		return true, s.settleCase(ctx, tx, eff, c, r)

	default:
		return false, fmt.Errorf("unknown timer kind %q", fire.Kind)
	}
}

// RearmTimers rebuilds the timer wheel from persisted case state after a
// restart. The pending timer of an open case follows from its step and
// deadline; deadlines already in the past fire immediately. Returns the
// number of timers armed.
func (s *Service) RearmTimers(ctx context.Context) (int, error) {
	open := []Step{
		StepInit, StepChoosingJurors, StepResponded,
		StepCrowdChoosingJurors, StepCrowdResponded,
		StepStarted, StepCrowdStarted, StepReappeal,
	}
	cases, err := s.reader.ListCases(ctx, CasesQuery{Steps: open, SortAsc: true})
	if err != nil {
		return 0, fmt.Errorf("list open cases: %w", err)
	}

	armed := 0
	for _, c := range cases {
		kind, err := s.pendingTimerKind(ctx, c)
		if err != nil {
			return armed, err
		}
		if kind == "" {
			continue
		}
		fire := TimerFire{CaseID: c.ID, Kind: kind}
		s.scheduler.Schedule(fire.Key(), c.Deadline, fire.Payload())
		armed++
	}

	s.log.InfoCtx(ctx, "re-armed %d case timers", armed)
	return armed, nil
}

func (s *Service) pendingTimerKind(ctx context.Context, c Case) (TimerKind, error) {
	switch c.Step {
	case StepInit:
		return TimerRespAppeal, nil
	case StepChoosingJurors, StepResponded, StepCrowdChoosingJurors, StepCrowdResponded:
		return TimerRespJuror, nil
	case StepReappeal:
		return TimerRespReappeal, nil
	case StepCrowdStarted:
		return TimerUploadResult, nil
	case StepStarted:
		// Voting still running or waiting out the reappeal window,
		// depending on whether the current round is tallied.
		rounds, err := s.reader.RoundsByCase(ctx, c.ID)
		if err != nil {
			return "", fmt.Errorf("rounds of case %s: %w", c.ID, err)
		}
		if len(rounds) == 0 {
			return "", nil
		}
		if rounds[len(rounds)-1].Tallied() {
			return TimerReappealWindow, nil
		}
		return TimerUploadResult, nil
	default:
		return "", nil
	}
}

// defaultJudgment resolves a case whose respondent never answered: the
// respondent side loses outright and settlement runs with whatever was
// staked. The sponsor appeal closes with the case, freeing the service
// for new complaints.
func (s *Service) defaultJudgment(ctx context.Context, tx Stores, eff *effects, c *Case) error {
	if err := s.closeOpenAppeal(ctx, tx, c.ServiceID); err != nil {
		return err
	}

	c.FinalResult = ResultApplicantWins
	c.FinalWinner = WinnerConsumer
	c.Step = StepEnded
	c.UpdatedAt = s.clock.Now().UTC()

	if err := s.appendEvent(ctx, tx, eff, c.ID, CaseEventDefaultedJudgment, map[string]any{
		"final_result": c.FinalResult,
	}); err != nil {
		return err
	}

	return s.settleCase(ctx, tx, eff, c, nil)
}
