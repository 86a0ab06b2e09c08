package arbitration

import "errors"

var (
	// validation
	ErrVoteOutOfRange   = errors.New("vote must be 0 or 1")
	ErrCaseNotFound     = errors.New("case not found")
	ErrRoundNotFound    = errors.New("round not found")
	ErrUnknownService   = errors.New("unknown service")
	ErrServiceNotActive = errors.New("service is not active")

	// authorization
	ErrNotRespondent    = errors.New("caller is not a respondent of the case")
	ErrNotSelectedJuror = errors.New("caller is not a selected juror of the round")
	ErrNotParticipant   = errors.New("caller is not a participant of the case")

	// state conflicts
	ErrStepConflict   = errors.New("action not allowed in current case step")
	ErrAppealPending  = errors.New("service already has an appeal awaiting response")
	ErrReappealClosed = errors.New("reappeal window is closed")
	ErrDuplicateVote  = errors.New("juror already voted in this round")

	// resource exhaustion
	ErrNoEligibleJurors = errors.New("not enough eligible jurors even for crowd arbitration")

	// accounting
	ErrAlreadySettled = errors.New("case already settled")
)
