package treasury

import (
	"context"
	"time"

	"stakepot/internal/models"
	"stakepot/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service defines the treasury ledger interface.
type Service interface {
	// Wallet lifecycle
	GetOrCreateWallet(ctx context.Context, adminID uint) (*models.TreasuryWallet, error)
	FreezeWallet(ctx context.Context, adminID uint, reason string) error
	UnfreezeWallet(ctx context.Context, adminID uint) error

	// Gateway deposits
	RecordPendingDeposit(ctx context.Context, adminID uint, amount decimal.Decimal, gatewayRef, description string) (*models.TreasuryTransaction, error)
	Deposit(ctx context.Context, adminID uint, amount decimal.Decimal, gatewayRef string, metadata map[string]interface{}) (*models.TreasuryTransaction, error)
	MarkDepositFailed(ctx context.Context, gatewayRef, reason string) error

	// Challenge funding and settlement
	FundChallenge(ctx context.Context, adminID, challengeID uint, amount decimal.Decimal) (*models.TreasuryTransaction, error)
	SettleChallenge(ctx context.Context, adminID, challengeID uint, amount decimal.Decimal) (*models.TreasuryTransaction, error)
	RefundChallenge(ctx context.Context, adminID, challengeID uint) (*models.TreasuryTransaction, error)

	// Read side
	GetSummary(ctx context.Context, adminID uint) (*Summary, error)
	GetTransactionHistory(ctx context.Context, adminID uint, txType string, limit, offset int) ([]models.TreasuryTransaction, int64, error)
	GetStats(ctx context.Context, adminID uint, from, to time.Time) (*repositories.LedgerStats, error)
}
