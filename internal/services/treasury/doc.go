/*
Package treasury implements the platform treasury ledger.

The treasury wallet is a single platform-owned balance per admin, funded
through the payment gateway and drawn down to stake challenges. Every balance
movement is paired with an append-only transaction row carrying a
before/after balance snapshot, written in the same database transaction that
moves the balance.

Ledger rules:
  - amounts are always positive; the transaction type carries the direction
  - balance_after = balance_before + amount (deposit/credit) or
    balance_before - amount (debit)
  - the balance never goes negative; debits are refused, not clamped
  - total_deposited, total_used and total_earned only ever grow

Usage:

	svc := treasury.NewService(repo, cacheService, treasury.Config{}, nil)

	// Finalize a gateway deposit (idempotent on the gateway reference)
	txn, err := svc.Deposit(ctx, adminID, amount, "pi_123", nil)

	// Stake a challenge
	txn, err = svc.FundChallenge(ctx, adminID, challengeID, stake)

	// Credit winnings back
	txn, err = svc.SettleChallenge(ctx, adminID, challengeID, payout)
*/
package treasury
