package report

import "errors"

var (
	// ErrInvariantViolation means the transaction log describes a sequence
	// no reconciler should produce, such as a raw sign flip.
	ErrInvariantViolation = errors.New("report: invariant violation")
	ErrDuplicateAccount   = errors.New("report: duplicate account name")
)
