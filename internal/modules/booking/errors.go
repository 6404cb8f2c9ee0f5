package booking

import "errors"

var (
	ErrNotFound            = errors.New("booking not found")
	ErrValidation          = errors.New("validation error")
	ErrForbidden           = errors.New("actor not allowed to perform this transition")
	ErrPickupTooSoon       = errors.New("pickup time is below the minimum lead time")
	ErrPaymentNotConfirmed = errors.New("payment provider has not confirmed this booking")
	ErrPaymentCheckFailed  = errors.New("could not verify payment, try again")
	ErrDuplicateCode       = errors.New("booking code already exists")
)
