package tvmcalc

import (
	"errors"
)

var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrNoConvergence    = errors.New("no solution or did not converge")
	ErrInvalidSchedule  = errors.New("invalid schedule")
	ErrSeriesMismatch   = errors.New("series length or frequency mismatch")
)
