package engine

import "errors"

var (
	ErrUnauthorized        = errors.New("caller is not authorized for this operation")
	ErrBatchLengthMismatch = errors.New("batch vote arguments differ in length")
	ErrZeroVotingPeriod    = errors.New("voting period must be positive")
	ErrStakeLocked         = errors.New("stake is locked while votes await resolution")
)
