// Package arbitration holds the case and round state machine that drives a
// dispute from complaint to settlement.
package arbitration

import (
	"time"

	"arbitron/internal/domain/escrow"
)

type Method string

const (
	MethodMultiRound Method = "multi_round"
	MethodCrowd      Method = "crowd"
)

type Step string

const (
	StepInit                 Step = "init"
	StepChoosingJurors       Step = "choosing_jurors"
	StepResponded            Step = "responded"
	StepStarted              Step = "started"
	StepReappeal             Step = "reappeal"
	StepCrowdChoosingJurors  Step = "crowd_choosing_jurors"
	StepCrowdResponded       Step = "crowd_responded"
	StepCrowdStarted         Step = "crowd_started"
	StepEnded                Step = "ended"
	StepReappealTimeoutEnded Step = "reappeal_timeout_ended"
)

type FinalResult string

const (
	ResultUndetermined   FinalResult = "undetermined"
	ResultApplicantWins  FinalResult = "applicant_wins"
	ResultRespondentWins FinalResult = "respondent_wins"
)

type WinnerSide string

const (
	WinnerConsumer WinnerSide = "consumer"
	WinnerProvider WinnerSide = "provider"
)

// Case is one arbitration dispute over a service, spanning one or more
// rounds. JurorAccounts accumulates every juror who ever confirmed for the
// case and doubles as the selection exclusion set.
type Case struct {
	ID                   string      `json:"case_id"`
	ServiceID            string      `json:"service_id"`
	AppealID             string      `json:"appeal_id"`
	Method               Method      `json:"method"`
	Step                 Step        `json:"step"`
	Deadline             time.Time   `json:"deadline"`
	RequiredJurors       int         `json:"required_jurors"`
	Applicants           []string    `json:"applicants"`
	JurorAccounts        []string    `json:"juror_accounts"`
	IsRespondentProvider bool        `json:"is_respondent_provider"`
	FinalResult          FinalResult `json:"final_result"`
	FinalWinner          WinnerSide  `json:"final_winner,omitempty"`
	LastRoundID          string      `json:"last_round_id,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

func (c Case) Ended() bool {
	return c.Step == StepEnded || c.Step == StepReappealTimeoutEnded
}

func (c Case) IsCrowd() bool {
	return c.Method == MethodCrowd
}

func (c Case) HasApplicant(account string) bool {
	return contains(c.Applicants, account)
}

func (c Case) HasJuror(account string) bool {
	return contains(c.JurorAccounts, account)
}

func (c *Case) AddApplicant(account string) {
	if !contains(c.Applicants, account) {
		c.Applicants = append(c.Applicants, account)
	}
}

func (c *Case) AddJuror(account string) {
	if !contains(c.JurorAccounts, account) {
		c.JurorAccounts = append(c.JurorAccounts, account)
	}
}

// SideOf maps an account to its escrow side within the case.
func (c Case) SideOf(account string, isProvider bool) escrow.Side {
	if isProvider {
		return escrow.SideRespondent
	}
	return escrow.SideApplicant
}

// LosingSide translates the final result into the escrow side that forfeits
// its stake. Sides are fixed relative to the original complaint, so the
// mapping holds regardless of who filed the last reappeal.
func (c Case) LosingSide() escrow.Side {
	if c.FinalResult == ResultApplicantWins {
		return escrow.SideRespondent
	}
	return escrow.SideApplicant
}

func (c Case) WinningSide() escrow.Side {
	if c.LosingSide() == escrow.SideApplicant {
		return escrow.SideRespondent
	}
	return escrow.SideApplicant
}

// Round is one escalation cycle within a case. Invited holds jurors who were
// drawn and notified; Jurors those who confirmed and staked. A round is
// immutable once Result is set, except that late votes are rejected upstream.
type Round struct {
	ID             string    `json:"round_id"`
	CaseID         string    `json:"case_id"`
	Seq            int       `json:"seq"`
	RequiredJurors int       `json:"required_jurors"`
	Responders     []string  `json:"responders"`
	Invited        []string  `json:"invited"`
	Jurors         []string  `json:"jurors"`
	Result         *int      `json:"result,omitempty"` // 1 applicant wins, 0 respondent wins
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r Round) Tallied() bool {
	return r.Result != nil
}

func (r Round) HasJuror(account string) bool {
	return contains(r.Jurors, account)
}

func (r Round) IsInvited(account string) bool {
	return contains(r.Invited, account)
}

func (r *Round) AddResponder(account string) {
	if !contains(r.Responders, account) {
		r.Responders = append(r.Responders, account)
	}
}

func (r *Round) AddJuror(account string) {
	if !contains(r.Jurors, account) {
		r.Jurors = append(r.Jurors, account)
	}
}

// Quorum is the tally threshold: the applicant side needs at least this
// many votes to win the round.
func (r Round) Quorum() int {
	return r.RequiredJurors / 2
}

// RequiredForSeq is the juror head count policy for a professional round.
func RequiredForSeq(seq int) int {
	return 1<<seq + 1
}

// Vote is an append-only record, one per (juror, round).
type Vote struct {
	ID        string    `json:"record_id"`
	CaseID    string    `json:"case_id"`
	RoundID   string    `json:"round_id"`
	Juror     string    `json:"juror"`
	Vote      int       `json:"vote"` // 1 for the applicant side, 0 for the respondent side
	CreatedAt time.Time `json:"created_at"`
}

// Evidence is free-form material a party attaches to a round.
type Evidence struct {
	ID        string    `json:"evidence_id"`
	CaseID    string    `json:"case_id"`
	RoundID   string    `json:"round_id"`
	Account   string    `json:"account"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Tally folds a round's votes into a result: 1 when the applicant side
// gathered at least quorum, else 0. Pure in the vote multiset, so arrival
// order cannot change the outcome.
func Tally(r Round, votes []Vote) int {
	forApplicant := 0
	for _, v := range votes {
		if v.Vote == 1 {
			forApplicant++
		}
	}
	if forApplicant >= r.Quorum() {
		return 1
	}
	return 0
}

func contains(set []string, account string) bool {
	for _, a := range set {
		if a == account {
			return true
		}
	}
	return false
}
