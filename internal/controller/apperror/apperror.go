// Package apperror maps domain errors onto HTTP statuses at the controller
// boundary.
package apperror

import (
	"errors"
	"net/http"

	"arbitron/internal/domain/arbitration"
	"arbitron/internal/domain/bank"
	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/juror"
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, arbitration.ErrVoteOutOfRange):
		return http.StatusBadRequest

	case errors.Is(err, arbitration.ErrCaseNotFound),
		errors.Is(err, arbitration.ErrRoundNotFound),
		errors.Is(err, arbitration.ErrUnknownService),
		errors.Is(err, juror.ErrJurorNotFound):
		return http.StatusNotFound

	case errors.Is(err, arbitration.ErrNotRespondent),
		errors.Is(err, arbitration.ErrNotSelectedJuror),
		errors.Is(err, arbitration.ErrNotParticipant):
		return http.StatusForbidden

	case errors.Is(err, bank.ErrInsufficientFunds),
		errors.Is(err, escrow.ErrInsufficientBalance),
		errors.Is(err, juror.ErrStakeTooLow):
		return http.StatusPaymentRequired

	case errors.Is(err, arbitration.ErrStepConflict),
		errors.Is(err, arbitration.ErrAppealPending),
		errors.Is(err, arbitration.ErrReappealClosed),
		errors.Is(err, arbitration.ErrDuplicateVote),
		errors.Is(err, arbitration.ErrServiceNotActive),
		errors.Is(err, arbitration.ErrAlreadySettled),
		errors.Is(err, juror.ErrAlreadyRegistered):
		return http.StatusConflict

	case errors.Is(err, arbitration.ErrNoEligibleJurors):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
