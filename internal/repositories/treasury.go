package repositories

import (
	"context"
	"errors"
	"time"

	"stakepot/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound      = errors.New("treasury wallet not found")
	ErrTransactionNotFound = errors.New("treasury transaction not found")
	ErrDuplicateWallet     = errors.New("treasury wallet already exists")
)

// TreasuryRepository defines the database operations for the treasury ledger.
type TreasuryRepository interface {
	// Wallet operations
	CreateWallet(wallet *models.TreasuryWallet) error
	GetWalletByAdminID(adminID uint) (*models.TreasuryWallet, error)
	// GetWalletByAdminIDForUpdate takes a SELECT ... FOR UPDATE row lock.
	// Only meaningful inside ExecuteInTransaction.
	GetWalletByAdminIDForUpdate(adminID uint) (*models.TreasuryWallet, error)
	UpdateWallet(wallet *models.TreasuryWallet) error

	// Transaction operations
	CreateTransaction(tx *models.TreasuryTransaction) error
	UpdateTransaction(tx *models.TreasuryTransaction) error
	GetTransactionByReference(reference string) (*models.TreasuryTransaction, error)
	GetTransactionByGatewayRef(gatewayRef string) (*models.TreasuryTransaction, error)
	GetChallengeTransaction(walletID, challengeID uint, txType string) (*models.TreasuryTransaction, error)
	ListTransactions(ctx context.Context, walletID uint, txType string, limit, offset int) ([]models.TreasuryTransaction, error)
	CountTransactions(ctx context.Context, walletID uint, txType string) (int64, error)

	// Aggregates
	GetLedgerStats(ctx context.Context, walletID uint, start, end time.Time) (*LedgerStats, error)

	// ExecuteInTransaction runs fn against a repository bound to a single
	// database transaction; any error rolls the whole unit back.
	ExecuteInTransaction(fn func(TreasuryRepository) error) error
}

// LedgerStats is the aggregate view over a wallet's transaction rows.
type LedgerStats struct {
	TotalTransactions int64           `json:"total_transactions"`
	DepositVolume     decimal.Decimal `json:"deposit_volume"`
	DebitVolume       decimal.Decimal `json:"debit_volume"`
	CreditVolume      decimal.Decimal `json:"credit_volume"`
	PendingDeposits   int64           `json:"pending_deposits"`
}
