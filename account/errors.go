package account

import "errors"

var (
	// ErrInvalidInput is returned when a target portfolio is malformed.
	// The account is left untouched.
	ErrInvalidInput = errors.New("invalid position input")

	// ErrBufferExhausted is returned when more steps are processed than the
	// account was created for.
	ErrBufferExhausted = errors.New("account history buffer exhausted")

	// ErrNestedSynthetic is returned when building a synthetic asset from an
	// account that already holds one.
	ErrNestedSynthetic = errors.New("nested synthetic assets are not permitted")

	// ErrUnordered is returned when the transaction log is not in date order.
	ErrUnordered = errors.New("transactions out of date order")
)
