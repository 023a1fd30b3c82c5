package errors

import "errors"

// User-facing game conditions. All of them are recoverable: the command is
// rejected, state is left unchanged and the caller may retry.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAction     = errors.New("invalid action")
	ErrEmptyBetDeal      = errors.New("cannot deal with an empty bet")
)
