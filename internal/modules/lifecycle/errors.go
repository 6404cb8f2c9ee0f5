package lifecycle

import "errors"

var (
	ErrUnknownTransition = errors.New("unknown transition")
	ErrInvalidState      = errors.New("transition not allowed from current phase")
	ErrMissingDriver     = errors.New("transition requires a driver id")
	ErrMissingPrice      = errors.New("transition requires an offer price")
)
