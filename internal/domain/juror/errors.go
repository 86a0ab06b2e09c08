package juror

import "errors"

var (
	ErrJurorNotFound     = errors.New("juror not found")
	ErrAlreadyRegistered = errors.New("account already registered as juror")
	ErrStakeTooLow       = errors.New("registration stake below minimum")
)
