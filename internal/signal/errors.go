package signal

import "errors"

// Validation errors detected before any venue call is made.
var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
)

// ErrUnsupportedTarget is returned by the router when the target token is
// neither a known exchange nor a brokerage account in the valid range.
var ErrUnsupportedTarget = errors.New("unsupported exchange or account")
