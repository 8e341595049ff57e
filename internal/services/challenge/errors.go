package challenge

import "errors"

// Service errors
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrInvalidStake      = errors.New("invalid stake amount")
	ErrInvalidState      = errors.New("challenge is not in a valid state for this operation")
	ErrInvalidOutcome    = errors.New("invalid challenge outcome")
)
