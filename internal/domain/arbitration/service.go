package arbitration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"arbitron/internal/domain/bank"
	"arbitron/internal/domain/catalog"
	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/money"
	"arbitron/pkg/logger"
	"arbitron/pkg/metrics"
)

type Config struct {
	Currency     string
	Treasury     string
	NotifyAmount int64

	RespondTimeout      time.Duration
	JurorRespondTimeout time.Duration
	UploadResultTimeout time.Duration
	ReappealWindow      time.Duration
}

// Rand is the entropy source behind juror draws.
type Rand interface {
	Intn(n int) int
}

type Service struct {
	uow       UnitOfWork
	reader    Reader
	events    EventReader
	transfers bank.Transferer
	scheduler Scheduler
	publisher EventPublisher
	rng       Rand
	clock     clockwork.Clock
	cfg       Config
	log       *logger.Logger
}

func NewService(
	uow UnitOfWork,
	reader Reader,
	events EventReader,
	transfers bank.Transferer,
	scheduler Scheduler,
	publisher EventPublisher,
	rng Rand,
	clock clockwork.Clock,
	cfg Config,
	log *logger.Logger,
) *Service {
	return &Service{
		uow:       uow,
		reader:    reader,
		events:    events,
		transfers: transfers,
		scheduler: scheduler,
		publisher: publisher,
		rng:       rng,
		clock:     clock,
		cfg:       cfg,
		log:       log,
	}
}

// effects collects side effects a transition may only apply after its
// transaction committed: timer changes, notification transfers and event
// publishing.
type effects struct {
	cancels   []string
	schedules []timerSchedule
	transfers []notifyTransfer
	events    []CaseEvent

	// shortfall is set when even the full crowd pool could not cover the
	// required panel. The escalated state still commits; the caller gets
	// ErrNoEligibleJurors after the fact.
	shortfall bool
}

// shortfallResult surfaces a committed-but-underfilled selection.
func (s *Service) shortfallResult(eff *effects) error {
	if eff.shortfall {
		return fmt.Errorf("crowd pool exhausted: %w", ErrNoEligibleJurors)
	}
	return nil
}

type timerSchedule struct {
	fire TimerFire
	at   time.Time
}

type notifyTransfer struct {
	to   string
	memo string
}

func (e *effects) cancelTimer(caseID string, kind TimerKind) {
	e.cancels = append(e.cancels, TimerFire{CaseID: caseID, Kind: kind}.Key())
}

func (e *effects) armTimer(caseID string, kind TimerKind, at time.Time) {
	e.schedules = append(e.schedules, timerSchedule{
		fire: TimerFire{CaseID: caseID, Kind: kind},
		at:   at,
	})
}

func (e *effects) notify(to, memo string) {
	e.transfers = append(e.transfers, notifyTransfer{to: to, memo: memo})
}

func (s *Service) apply(ctx context.Context, eff *effects) {
	for _, key := range eff.cancels {
		s.scheduler.Cancel(key)
	}
	for _, sch := range eff.schedules {
		s.scheduler.Schedule(sch.fire.Key(), sch.at, sch.fire.Payload())
	}
	for _, tr := range eff.transfers {
		amount := money.New(s.cfg.NotifyAmount, s.cfg.Currency)
		if err := s.transfers.Transfer(ctx, s.cfg.Treasury, tr.to, amount, tr.memo); err != nil {
			s.log.ErrorCtx(ctx, "notification transfer to %s failed: %v", tr.to, err)
		}
	}
	if len(eff.events) > 0 && s.publisher != nil {
		if err := s.publisher.PublishCaseEvents(ctx, eff.events); err != nil {
			s.log.ErrorCtx(ctx, "publish case events: %v", err)
		}
	}
}

func (s *Service) appendEvent(ctx context.Context, tx Stores, eff *effects, caseID string, kind CaseEventKind, data any) error {
	payload, _ := json.Marshal(data)

	created, err := tx.Events.CreateCaseEvent(ctx, NewCaseEvent{
		CaseID:    caseID,
		Kind:      kind,
		Data:      payload,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create case event: %w", err)
	}
	eff.events = append(eff.events, *created)
	return nil
}

type FileComplaintCmd struct {
	ServiceID string      `json:"service_id"`
	Applicant string      `json:"applicant"`
	Stake     money.Money `json:"stake"`
	Reason    string      `json:"reason"`
}

// FileComplaint opens a dispute against a service, or attaches the applicant
// to the dispute already in flight.
func (s *Service) FileComplaint(ctx context.Context, cmd FileComplaintCmd) (*Case, error) {
	if cmd.ServiceID == "" || cmd.Applicant == "" {
		return nil, fmt.Errorf("service_id and applicant are required")
	}
	if !cmd.Stake.IsPositive() {
		return nil, fmt.Errorf("complaint stake must be positive")
	}

	var (
		result *Case
		eff    effects
	)
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		svc, err := tx.Catalog.GetService(ctx, cmd.ServiceID)
		if err != nil {
			return fmt.Errorf("get service: %w", err)
		}
		if svc == nil {
			return fmt.Errorf("service %s: %w", cmd.ServiceID, ErrUnknownService)
		}
		if svc.Status != catalog.StatusActive {
			return fmt.Errorf("service %s is %s: %w", cmd.ServiceID, svc.Status, ErrServiceNotActive)
		}

		providers, err := tx.Catalog.ProviderStakes(ctx, cmd.ServiceID)
		if err != nil {
			return fmt.Errorf("get providers: %w", err)
		}
		if len(providers) == 0 {
			return fmt.Errorf("service %s has no providers: %w", cmd.ServiceID, ErrUnknownService)
		}

		openAppeal, err := tx.Cases.GetOpenAppealByService(ctx, cmd.ServiceID)
		if err != nil {
			return fmt.Errorf("get open appeal: %w", err)
		}

		var attachTo *Case
		if openAppeal != nil {
			appealCase, err := s.appealCase(ctx, tx, openAppeal)
			if err != nil {
				return err
			}
			// The service can be disputed again only once the running case
			// reached started.
			if appealCase != nil && appealCase.Step != StepStarted && appealCase.Step != StepCrowdStarted {
				return fmt.Errorf("service %s: %w", cmd.ServiceID, ErrAppealPending)
			}
		} else {
			open, err := tx.Cases.GetOpenCaseByService(ctx, cmd.ServiceID)
			if err != nil {
				return fmt.Errorf("get open case: %w", err)
			}
			if open != nil && open.Step != StepStarted && open.Step != StepCrowdStarted {
				attachTo = open
			}
		}

		if attachTo != nil {
			result, err = s.attachApplicant(ctx, tx, &eff, attachTo, cmd)
		} else {
			result, err = s.openCase(ctx, tx, &eff, providers, cmd)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.apply(ctx, &eff)
	return result, nil
}

func (s *Service) appealCase(ctx context.Context, tx Stores, a *Appeal) (*Case, error) {
	if a.CaseID == "" {
		return nil, nil
	}
	c, err := tx.Cases.GetCase(ctx, a.CaseID)
	if err != nil {
		return nil, fmt.Errorf("get appeal case: %w", err)
	}
	return c, nil
}

func (s *Service) openCase(ctx context.Context, tx Stores, eff *effects, providers []catalog.ProviderStake, cmd FileComplaintCmd) (*Case, error) {
	now := s.clock.Now().UTC()

	c := Case{
		ID:                   uuid.NewString(),
		ServiceID:            cmd.ServiceID,
		Method:               MethodMultiRound,
		Step:                 StepInit,
		Deadline:             now.Add(s.cfg.RespondTimeout),
		RequiredJurors:       RequiredForSeq(1),
		Applicants:           []string{cmd.Applicant},
		IsRespondentProvider: true,
		FinalResult:          ResultUndetermined,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	appeal := Appeal{
		ID:        uuid.NewString(),
		ServiceID: cmd.ServiceID,
		CaseID:    c.ID,
		Status:    AppealAwaitingResponse,
		IsSponsor: true,
		Applicant: cmd.Applicant,
		Reason:    cmd.Reason,
		FiledAt:   now,
	}
	c.AppealID = appeal.ID

	if err := tx.Cases.CreateCase(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	if err := tx.Cases.CreateAppeal(ctx, appeal); err != nil {
		return nil, fmt.Errorf("create appeal: %w", err)
	}

	if err := s.depositStake(ctx, tx, c.ID, cmd.Applicant, cmd.Stake, escrow.SideApplicant); err != nil {
		return nil, err
	}

	for _, p := range providers {
		eff.notify(p.Account, fmt.Sprintf("case_id: %s, service_id: %s", c.ID, cmd.ServiceID))
	}
	eff.armTimer(c.ID, TimerRespAppeal, c.Deadline)

	if err := s.appendEvent(ctx, tx, eff, c.ID, CaseEventComplaintFiled, cmd); err != nil {
		return nil, err
	}

	metrics.CasesOpened.Inc()
	s.log.InfoCtx(ctx, "case %s opened for service %s by %s", c.ID, cmd.ServiceID, cmd.Applicant)
	return &c, nil
}

func (s *Service) attachApplicant(ctx context.Context, tx Stores, eff *effects, c *Case, cmd FileComplaintCmd) (*Case, error) {
	now := s.clock.Now().UTC()

	// The case already has a responder, so the attach appeal is recorded
	// closed and never gates future complaints.
	appeal := Appeal{
		ID:        uuid.NewString(),
		ServiceID: cmd.ServiceID,
		CaseID:    c.ID,
		Status:    AppealClosed,
		Applicant: cmd.Applicant,
		Reason:    cmd.Reason,
		FiledAt:   now,
	}
	if err := tx.Cases.CreateAppeal(ctx, appeal); err != nil {
		return nil, fmt.Errorf("create appeal: %w", err)
	}

	c.AddApplicant(cmd.Applicant)
	c.UpdatedAt = now
	if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	if err := s.depositStake(ctx, tx, c.ID, cmd.Applicant, cmd.Stake, escrow.SideApplicant); err != nil {
		return nil, err
	}

	if err := s.appendEvent(ctx, tx, eff, c.ID, CaseEventComplaintFiled, cmd); err != nil {
		return nil, err
	}

	s.log.InfoCtx(ctx, "applicant %s attached to case %s", cmd.Applicant, c.ID)
	return c, nil
}

// depositStake moves the party's stake to the treasury and mirrors it in the
// case escrow.
func (s *Service) depositStake(ctx context.Context, tx Stores, caseID, account string, amount money.Money, side escrow.Side) error {
	if err := s.transfers.Transfer(ctx, account, s.cfg.Treasury, amount, "arbitration stake, case_id: "+caseID); err != nil {
		return fmt.Errorf("transfer stake: %w", err)
	}
	if err := escrow.Deposit(ctx, tx.Escrow, caseID, account, amount, side); err != nil {
		return err
	}
	return nil
}

type RespondCmd struct {
	CaseID    string `json:"case_id"`
	Responder string `json:"responder"`
}

// RespondToCase is the respondent accepting the dispute. It opens round 1
// and starts juror selection.
func (s *Service) RespondToCase(ctx context.Context, cmd RespondCmd) error {
	var eff effects
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		c, err := s.lockCase(ctx, tx, cmd.CaseID)
		if err != nil {
			return err
		}
		if c.Step != StepInit {
			return fmt.Errorf("case %s is %s, respond allowed only in init: %w", c.ID, c.Step, ErrStepConflict)
		}

		if err := s.requireProvider(ctx, tx, c.ServiceID, cmd.Responder); err != nil {
			return err
		}

		if err := s.closeOpenAppeal(ctx, tx, c.ServiceID); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		r := Round{
			ID:             uuid.NewString(),
			CaseID:         c.ID,
			Seq:            1,
			RequiredJurors: c.RequiredJurors,
			Responders:     []string{cmd.Responder},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Cases.CreateRound(ctx, r); err != nil {
			return fmt.Errorf("create round: %w", err)
		}

		c.Step = StepChoosingJurors
		c.UpdatedAt = now
		eff.cancelTimer(c.ID, TimerRespAppeal)

		if err := s.appendEvent(ctx, tx, &eff, c.ID, CaseEventRespondentJoined, cmd); err != nil {
			return err
		}

		if err := s.selectJurors(ctx, tx, &eff, c, &r, r.RequiredJurors); err != nil {
			return err
		}

		if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return s.shortfallResult(&eff)
}

type JoinRoundCmd struct {
	CaseID string      `json:"case_id"`
	Juror  string      `json:"juror"`
	Stake  money.Money `json:"stake"`
}

// RespondAsJuror is an invited juror confirming participation. Crowd cases
// require double the offered stake. When the panel fills, voting starts.
func (s *Service) RespondAsJuror(ctx context.Context, cmd JoinRoundCmd) error {
	if !cmd.Stake.IsPositive() {
		return fmt.Errorf("juror stake must be positive")
	}

	var eff effects
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		c, err := s.lockCase(ctx, tx, cmd.CaseID)
		if err != nil {
			return err
		}
		switch c.Step {
		case StepChoosingJurors, StepResponded, StepCrowdChoosingJurors, StepCrowdResponded:
		default:
			return fmt.Errorf("case %s is %s, juror confirmation closed: %w", c.ID, c.Step, ErrStepConflict)
		}

		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if !r.IsInvited(cmd.Juror) {
			return fmt.Errorf("juror %s was not invited to round %d: %w", cmd.Juror, r.Seq, ErrNotSelectedJuror)
		}
		if r.HasJuror(cmd.Juror) {
			return fmt.Errorf("juror %s already confirmed for round %d: %w", cmd.Juror, r.Seq, ErrStepConflict)
		}

		stake := cmd.Stake
		if c.IsCrowd() {
			stake = money.New(2*cmd.Stake.Amount, cmd.Stake.Currency)
		}
		if err := s.transfers.Transfer(ctx, cmd.Juror, s.cfg.Treasury, stake, "juror stake, case_id: "+c.ID); err != nil {
			return fmt.Errorf("transfer juror stake: %w", err)
		}

		now := s.clock.Now().UTC()
		r.AddJuror(cmd.Juror)
		r.UpdatedAt = now
		c.AddJuror(cmd.Juror)
		c.UpdatedAt = now

		if err := s.appendEvent(ctx, tx, &eff, c.ID, CaseEventJurorConfirmed, cmd); err != nil {
			return err
		}

		if len(r.Jurors) >= r.RequiredJurors {
			if c.IsCrowd() {
				c.Step = StepCrowdStarted
			} else {
				c.Step = StepStarted
			}
			c.Deadline = now.Add(s.cfg.UploadResultTimeout)
			eff.cancelTimer(c.ID, TimerRespJuror)
			eff.armTimer(c.ID, TimerUploadResult, c.Deadline)
		} else {
			if c.IsCrowd() {
				c.Step = StepCrowdResponded
			} else {
				c.Step = StepResponded
			}
			// Outstanding invites count toward the remaining seats; fresh
			// invites only go out when the invite pool itself is short.
			if err := s.selectJurors(ctx, tx, &eff, c, r, r.RequiredJurors-len(r.Invited)); err != nil {
				return err
			}
		}

		if err := tx.Cases.UpdateRound(ctx, *r); err != nil {
			return fmt.Errorf("update round: %w", err)
		}
		if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return s.shortfallResult(&eff)
}

type EvidenceCmd struct {
	CaseID  string `json:"case_id"`
	Account string `json:"account"`
	Text    string `json:"text"`
}

// UploadEvidence attaches material to the current round. Any participant may
// do so at any step before the case ends.
func (s *Service) UploadEvidence(ctx context.Context, cmd EvidenceCmd) error {
	if cmd.Text == "" {
		return fmt.Errorf("evidence text is required")
	}

	var eff effects
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		c, err := s.lockCase(ctx, tx, cmd.CaseID)
		if err != nil {
			return err
		}
		if c.Ended() {
			return fmt.Errorf("case %s already ended: %w", c.ID, ErrStepConflict)
		}

		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return err
		}

		if !c.HasApplicant(cmd.Account) && !c.HasJuror(cmd.Account) && !contains(r.Responders, cmd.Account) {
			return fmt.Errorf("account %s: %w", cmd.Account, ErrNotParticipant)
		}

		ev := Evidence{
			ID:        uuid.NewString(),
			CaseID:    c.ID,
			RoundID:   r.ID,
			Account:   cmd.Account,
			Text:      cmd.Text,
			CreatedAt: s.clock.Now().UTC(),
		}
		if err := tx.Cases.CreateEvidence(ctx, ev); err != nil {
			return fmt.Errorf("create evidence: %w", err)
		}

		return s.appendEvent(ctx, tx, &eff, c.ID, CaseEventEvidenceUploaded, ev)
	})
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return nil
}

type VoteCmd struct {
	CaseID string `json:"case_id"`
	Juror  string `json:"juror"`
	Vote   int    `json:"vote"`
}

// UploadVote appends a juror's vote. Reaching quorum tallies immediately
// without waiting for the upload timeout.
func (s *Service) UploadVote(ctx context.Context, cmd VoteCmd) error {
	if cmd.Vote != 0 && cmd.Vote != 1 {
		return fmt.Errorf("vote %d: %w", cmd.Vote, ErrVoteOutOfRange)
	}

	var eff effects
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		c, err := s.lockCase(ctx, tx, cmd.CaseID)
		if err != nil {
			return err
		}
		if c.Step != StepStarted && c.Step != StepCrowdStarted {
			return fmt.Errorf("case %s is %s, voting not open: %w", c.ID, c.Step, ErrStepConflict)
		}

		now := s.clock.Now().UTC()
		if now.After(c.Deadline) {
			return fmt.Errorf("vote window closed at %s: %w", c.Deadline.Format(time.RFC3339), ErrStepConflict)
		}

		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if r.Tallied() {
			return fmt.Errorf("round %d already tallied: %w", r.Seq, ErrStepConflict)
		}
		if !r.HasJuror(cmd.Juror) {
			return fmt.Errorf("juror %s: %w", cmd.Juror, ErrNotSelectedJuror)
		}

		votes, err := tx.Cases.VotesByRound(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("votes by round: %w", err)
		}
		for _, v := range votes {
			if v.Juror == cmd.Juror {
				return fmt.Errorf("juror %s: %w", cmd.Juror, ErrDuplicateVote)
			}
		}

		vote := Vote{
			ID:        uuid.NewString(),
			CaseID:    c.ID,
			RoundID:   r.ID,
			Juror:     cmd.Juror,
			Vote:      cmd.Vote,
			CreatedAt: now,
		}
		if err := tx.Cases.CreateVote(ctx, vote); err != nil {
			return fmt.Errorf("create vote: %w", err)
		}
		votes = append(votes, vote)
		metrics.VotesUploaded.Inc()

		if err := s.appendEvent(ctx, tx, &eff, c.ID, CaseEventVoteUploaded, VoteCmd{CaseID: cmd.CaseID, Juror: cmd.Juror}); err != nil {
			return err
		}

		// Tally fires as soon as the vote count exceeds quorum, ahead of
		// the upload timeout.
		if len(votes) > r.Quorum() {
			eff.cancelTimer(c.ID, TimerUploadResult)
			if err := s.tallyRound(ctx, tx, &eff, c, r, votes); err != nil {
				return err
			}
		}

		if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return nil
}

// tallyRound finalizes the round result. Multi-round cases then wait out a
// reappeal window; crowd cases settle immediately.
func (s *Service) tallyRound(ctx context.Context, tx Stores, eff *effects, c *Case, r *Round, votes []Vote) error {
	result := Tally(*r, votes)
	now := s.clock.Now().UTC()

	r.Result = &result
	r.UpdatedAt = now
	if err := tx.Cases.UpdateRound(ctx, *r); err != nil {
		return fmt.Errorf("update round: %w", err)
	}

	c.LastRoundID = r.ID
	c.UpdatedAt = now

	if err := s.appendEvent(ctx, tx, eff, c.ID, CaseEventRoundTallied, map[string]any{
		"round_id": r.ID,
		"seq":      r.Seq,
		"result":   result,
	}); err != nil {
		return err
	}

	if c.Method == MethodMultiRound {
		c.Deadline = now.Add(s.cfg.ReappealWindow)
		eff.armTimer(c.ID, TimerReappealWindow, c.Deadline)
		return nil
	}

	s.finalize(c, *r, StepEnded)
	return s.settleCase(ctx, tx, eff, c, r)
}

// finalize copies the round result into the case's final verdict.
func (s *Service) finalize(c *Case, r Round, terminal Step) {
	if *r.Result == 1 {
		c.FinalResult = ResultApplicantWins
	} else {
		c.FinalResult = ResultRespondentWins
	}
	if c.IsRespondentProvider && c.FinalResult == ResultRespondentWins {
		c.FinalWinner = WinnerProvider
	} else {
		c.FinalWinner = WinnerConsumer
	}
	c.LastRoundID = r.ID
	c.Step = terminal
}

type ReappealCmd struct {
	CaseID    string      `json:"case_id"`
	Applicant string      `json:"applicant"`
	Stake     money.Money `json:"stake"`
	Reason    string      `json:"reason"`
}

// Reappeal disputes a tallied round within the reappeal window. Either party
// may file; crowd cases cannot be reappealed.
func (s *Service) Reappeal(ctx context.Context, cmd ReappealCmd) error {
	if !cmd.Stake.IsPositive() {
		return fmt.Errorf("reappeal stake must be positive")
	}

	var eff effects
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		c, err := s.lockCase(ctx, tx, cmd.CaseID)
		if err != nil {
			return err
		}
		if c.Method != MethodMultiRound {
			return fmt.Errorf("crowd case %s: %w", c.ID, ErrReappealClosed)
		}
		if c.Step != StepStarted {
			return fmt.Errorf("case %s is %s: %w", c.ID, c.Step, ErrReappealClosed)
		}

		now := s.clock.Now().UTC()
		if now.After(c.Deadline) {
			return fmt.Errorf("reappeal window closed at %s: %w", c.Deadline.Format(time.RFC3339), ErrReappealClosed)
		}

		r, err := s.currentRound(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if !r.Tallied() {
			return fmt.Errorf("round %d not tallied yet: %w", r.Seq, ErrReappealClosed)
		}

		isProvider, err := s.isProvider(ctx, tx, c.ServiceID, cmd.Applicant)
		if err != nil {
			return err
		}

		side := escrow.SideApplicant
		if isProvider {
			side = escrow.SideRespondent
		}
		if err := s.depositStake(ctx, tx, c.ID, cmd.Applicant, cmd.Stake, side); err != nil {
			return err
		}

		appeal := Appeal{
			ID:        uuid.NewString(),
			ServiceID: c.ServiceID,
			CaseID:    c.ID,
			Status:    AppealAwaitingResponse,
			Applicant: cmd.Applicant,
			Reason:    cmd.Reason,
			FiledAt:   now,
		}
		if err := tx.Cases.CreateAppeal(ctx, appeal); err != nil {
			return fmt.Errorf("create appeal: %w", err)
		}

		if !isProvider {
			c.AddApplicant(cmd.Applicant)
		}
		c.Step = StepReappeal
		c.Deadline = now.Add(s.cfg.RespondTimeout)
		c.UpdatedAt = now
		if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
			return fmt.Errorf("update case: %w", err)
		}

		// Notify the opposite side.
		if isProvider {
			for _, a := range c.Applicants {
				if a != cmd.Applicant {
					eff.notify(a, "reappeal, case_id: "+c.ID)
				}
			}
		} else {
			providers, err := tx.Catalog.ProviderStakes(ctx, c.ServiceID)
			if err != nil {
				return fmt.Errorf("get providers: %w", err)
			}
			for _, p := range providers {
				eff.notify(p.Account, "reappeal, case_id: "+c.ID)
			}
		}

		eff.cancelTimer(c.ID, TimerReappealWindow)
		eff.armTimer(c.ID, TimerRespReappeal, c.Deadline)

		return s.appendEvent(ctx, tx, &eff, c.ID, CaseEventReappealFiled, cmd)
	})
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return nil
}

type ReRespondCmd struct {
	CaseID    string `json:"case_id"`
	Responder string `json:"responder"`
}

// ReRespond is the opposite side accepting a reappeal. It opens the next
// round with an exponentially larger panel.
func (s *Service) ReRespond(ctx context.Context, cmd ReRespondCmd) error {
	var eff effects
	err := s.uow.Do(ctx, func(tx Stores) error {
		eff = effects{}

		c, err := s.lockCase(ctx, tx, cmd.CaseID)
		if err != nil {
			return err
		}
		if c.Step != StepReappeal {
			return fmt.Errorf("case %s is %s, no reappeal pending: %w", c.ID, c.Step, ErrStepConflict)
		}

		isProvider, err := s.isProvider(ctx, tx, c.ServiceID, cmd.Responder)
		if err != nil {
			return err
		}
		if !isProvider && !c.HasApplicant(cmd.Responder) {
			return fmt.Errorf("account %s: %w", cmd.Responder, ErrNotRespondent)
		}

		eff.cancelTimer(c.ID, TimerRespReappeal)

		if err := s.closeOpenAppeal(ctx, tx, c.ServiceID); err != nil {
			return err
		}

		return s.openNextRound(ctx, tx, &eff, c, cmd.Responder)
	})
	if err != nil {
		return err
	}

	s.apply(ctx, &eff)
	return s.shortfallResult(&eff)
}

// openNextRound spawns round seq+1 after a reappeal and runs selection.
// responder may be empty when the re-respond window timed out.
func (s *Service) openNextRound(ctx context.Context, tx Stores, eff *effects, c *Case, responder string) error {
	prev, err := s.currentRound(ctx, tx, c.ID)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	r := Round{
		ID:             uuid.NewString(),
		CaseID:         c.ID,
		Seq:            prev.Seq + 1,
		RequiredJurors: RequiredForSeq(prev.Seq + 1),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if responder != "" {
		r.AddResponder(responder)
	}
	if err := tx.Cases.CreateRound(ctx, r); err != nil {
		return fmt.Errorf("create round: %w", err)
	}

	c.Step = StepChoosingJurors
	c.RequiredJurors = r.RequiredJurors
	c.UpdatedAt = now

	if err := s.selectJurors(ctx, tx, eff, c, &r, r.RequiredJurors); err != nil {
		return err
	}

	if err := tx.Cases.UpdateCase(ctx, *c); err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	return nil
}

func (s *Service) lockCase(ctx context.Context, tx Stores, caseID string) (*Case, error) {
	if caseID == "" {
		return nil, fmt.Errorf("case_id is required")
	}
	c, err := tx.Cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrCaseNotFound)
	}
	return c, nil
}

func (s *Service) currentRound(ctx context.Context, tx Stores, caseID string) (*Round, error) {
	r, err := tx.Cases.CurrentRound(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("current round: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("case %s has no round: %w", caseID, ErrRoundNotFound)
	}
	return r, nil
}

func (s *Service) isProvider(ctx context.Context, tx Stores, serviceID, account string) (bool, error) {
	providers, err := tx.Catalog.ProviderStakes(ctx, serviceID)
	if err != nil {
		return false, fmt.Errorf("get providers: %w", err)
	}
	for _, p := range providers {
		if p.Account == account {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) requireProvider(ctx context.Context, tx Stores, serviceID, account string) error {
	ok, err := s.isProvider(ctx, tx, serviceID, account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %s is not a provider of service %s: %w", account, serviceID, ErrNotRespondent)
	}
	return nil
}

func (s *Service) closeOpenAppeal(ctx context.Context, tx Stores, serviceID string) error {
	appeal, err := tx.Cases.GetOpenAppealByService(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("get open appeal: %w", err)
	}
	if appeal == nil {
		return nil
	}
	appeal.Status = AppealClosed
	if err := tx.Cases.UpdateAppeal(ctx, *appeal); err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	return nil
}

func (s *Service) GetCase(ctx context.Context, caseID string) (*Case, []Round, error) {
	c, err := s.reader.GetCase(ctx, caseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get case: %w", err)
	}
	if c == nil {
		return nil, nil, fmt.Errorf("case %s: %w", caseID, ErrCaseNotFound)
	}
	rounds, err := s.reader.RoundsByCase(ctx, caseID)
	if err != nil {
		return nil, nil, fmt.Errorf("rounds by case: %w", err)
	}
	return c, rounds, nil
}

func (s *Service) ListCases(ctx context.Context, query CasesQuery) ([]Case, error) {
	cases, err := s.reader.ListCases(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

func (s *Service) CaseEvents(ctx context.Context, query CaseEventQuery) (CaseEventPage, error) {
	page, err := s.events.GetCaseEvents(ctx, query)
	if err != nil {
		return CaseEventPage{}, fmt.Errorf("get case events: %w", err)
	}
	return page, nil
}
