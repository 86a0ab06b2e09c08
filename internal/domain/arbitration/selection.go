package arbitration

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"arbitron/internal/domain/juror"
	"arbitron/pkg/metrics"
)

// selectJurors fills count seats of the round from the eligible pool:
// registered jurors minus the case's cumulative juror set, minus anyone
// already invited or confirmed for this round, minus malicious jurors.
// Professional rounds draw from the professional tier only.
//
// A short professional pool escalates the case to crowd arbitration exactly
// once: method flips to crowd, a new round opens with double the seats
// capped at the registered pool, and the draw reruns against the full
// registry. A short crowd pool invites whoever is left and records the
// shortfall; required counts never double again, which bounds the
// escalation the source recursed on. Every shortfall leaves the juror
// timer armed, so the draw reruns as the registry grows.
func (s *Service) selectJurors(ctx context.Context, tx Stores, eff *effects, c *Case, r *Round, count int) error {
	if count <= 0 {
		return nil
	}

	pool, err := s.eligiblePool(ctx, tx, c, r)
	if err != nil {
		return err
	}

	if len(pool) < count && !c.IsCrowd() {
		escalated, err := s.escalateToCrowd(ctx, tx, eff, c, r, count)
		if err != nil {
			return err
		}
		r = escalated
		count = r.RequiredJurors

		pool, err = s.eligiblePool(ctx, tx, c, r)
		if err != nil {
			return err
		}
	}

	if len(pool) < count {
		eff.shortfall = true
		count = len(pool)
		s.log.Warn("case %s: crowd pool short, inviting remaining %d jurors", c.ID, count)
	}

	chosen := drawJurors(s.rng, pool, count)

	now := s.clock.Now().UTC()
	c.Deadline = now.Add(s.cfg.JurorRespondTimeout)
	eff.armTimer(c.ID, TimerRespJuror, c.Deadline)

	if len(chosen) == 0 {
		// Nothing to invite yet. The armed timer reruns the draw.
		return nil
	}

	r.Invited = append(r.Invited, chosen...)
	r.UpdatedAt = now
	if err := tx.Cases.UpdateRound(ctx, *r); err != nil {
		return fmt.Errorf("update round: %w", err)
	}

	for _, account := range chosen {
		eff.notify(account, fmt.Sprintf("juror invitation, case_id: %s, service_id: %s", c.ID, c.ServiceID))
	}

	return s.appendEvent(ctx, tx, eff, c.ID, CaseEventJurorsInvited, map[string]any{
		"round_id": r.ID,
		"seq":      r.Seq,
		"invited":  chosen,
	})
}

func (s *Service) eligiblePool(ctx context.Context, tx Stores, c *Case, r *Round) ([]juror.Juror, error) {
	exclude := make([]string, 0, len(c.JurorAccounts)+len(r.Invited)+len(r.Jurors))
	exclude = append(exclude, c.JurorAccounts...)
	exclude = append(exclude, r.Invited...)
	exclude = append(exclude, r.Jurors...)

	pool, err := tx.Jurors.ListEligible(ctx, exclude, !c.IsCrowd())
	if err != nil {
		return nil, fmt.Errorf("list eligible jurors: %w", err)
	}
	return pool, nil
}

// escalateToCrowd is the one-way switch to the crowd track: the current
// round is abandoned untallied and a fresh round with 2×count seats opens.
// The doubled requirement is capped at the seatable registry, so a crowd
// panel never demands more jurors than are registered.
func (s *Service) escalateToCrowd(ctx context.Context, tx Stores, eff *effects, c *Case, prev *Round, count int) (*Round, error) {
	registry, err := tx.Jurors.ListEligible(ctx, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list registered jurors: %w", err)
	}
	required := 2 * count
	if required > len(registry) {
		required = len(registry)
	}
	if required < 1 {
		required = 1
	}

	now := s.clock.Now().UTC()

	next := Round{
		ID:             uuid.NewString(),
		CaseID:         c.ID,
		Seq:            prev.Seq + 1,
		RequiredJurors: required,
		Responders:     prev.Responders,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.Cases.CreateRound(ctx, next); err != nil {
		return nil, fmt.Errorf("create crowd round: %w", err)
	}

	c.Method = MethodCrowd
	c.Step = StepCrowdChoosingJurors
	c.RequiredJurors = next.RequiredJurors
	c.UpdatedAt = now

	metrics.CrowdEscalations.Inc()
	s.log.InfoCtx(ctx, "case %s escalated to crowd arbitration, required jurors %d", c.ID, next.RequiredJurors)

	if err := s.appendEvent(ctx, tx, eff, c.ID, CaseEventCrowdEscalated, map[string]any{
		"round_id":        next.ID,
		"seq":             next.Seq,
		"required_jurors": next.RequiredJurors,
	}); err != nil {
		return nil, err
	}
	return &next, nil
}

// drawJurors picks count distinct accounts from the pool by uniform draws
// without replacement.
func drawJurors(rng Rand, pool []juror.Juror, count int) []string {
	if count >= len(pool) {
		all := make([]string, len(pool))
		for i, j := range pool {
			all[i] = j.Account
		}
		return all
	}

	picked := make(map[int]struct{}, count)
	chosen := make([]string, 0, count)
	for len(chosen) < count {
		i := rng.Intn(len(pool))
		if _, ok := picked[i]; ok {
			continue
		}
		picked[i] = struct{}{}
		chosen = append(chosen, pool[i].Account)
	}
	return chosen
}
