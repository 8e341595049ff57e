package treasury

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient treasury balance")
	ErrWalletFrozen        = errors.New("treasury wallet is frozen")
	ErrWalletNotFound      = errors.New("treasury wallet not found")
	ErrChallengeNotFunded  = errors.New("challenge has no completed funding debit")
	ErrDepositNotPending   = errors.New("deposit is not pending")
	ErrTransactionFailed   = errors.New("treasury transaction failed")
)
