package treasury

import (
	"context"
	"time"

	"stakepot/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds configuration for treasury operations.
type Config struct {
	Currency string
	// MaxDepositAmount caps a single gateway deposit. Zero means no cap.
	MaxDepositAmount decimal.Decimal
}

// Summary is the read-side view of the treasury wallet.
type Summary struct {
	AdminID        uint            `json:"admin_id"`
	Balance        decimal.Decimal `json:"balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalUsed      decimal.Decimal `json:"total_used"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
	NetEarnings    decimal.Decimal `json:"net_earnings"` // earned - used
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
}

// CacheOperator is the subset of cache operations the service needs.
// *cache.CacheService satisfies it.
type CacheOperator interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(entityType, keyType string, value interface{}) string
}

// summaryFromWallet derives the cached read model from a wallet row.
func summaryFromWallet(w *models.TreasuryWallet) *Summary {
	return &Summary{
		AdminID:        w.AdminID,
		Balance:        w.Balance,
		TotalDeposited: w.TotalDeposited,
		TotalUsed:      w.TotalUsed,
		TotalEarned:    w.TotalEarned,
		NetEarnings:    w.TotalEarned.Sub(w.TotalUsed),
		Currency:       w.Currency,
		Status:         w.Status,
	}
}
