package asset

import "errors"

var (
	// ErrInvalidConfig is returned by New when construction parameters are unusable.
	ErrInvalidConfig = errors.New("invalid asset config")

	// ErrOutOfRange is returned when a lookup date precedes all available data.
	ErrOutOfRange = errors.New("date out of range")

	// ErrInvalidValue is returned when a resolved value breaks a domain constraint
	// (negative margin, non-positive point value).
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidPrice is returned when neither the exec nor the close price is finite.
	ErrInvalidPrice = errors.New("invalid price")
)
