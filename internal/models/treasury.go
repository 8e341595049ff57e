package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Treasury transaction types
const (
	TreasuryTxDeposit = "deposit"
	TreasuryTxDebit   = "debit"
	TreasuryTxCredit  = "credit"
)

// Treasury transaction statuses
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// TreasuryWallet is the platform-owned ledger balance, one row per admin.
// All money columns are numeric(20,2); arithmetic happens on decimal.Decimal
// only, never on floats.
type TreasuryWallet struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	AdminID        uint            `gorm:"uniqueIndex;not null" json:"admin_id"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	TotalDeposited decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_deposited"`
	TotalUsed      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_used"`
	TotalEarned    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_earned"`
	Currency       string          `gorm:"default:'USD'" json:"currency"`
	Status         string          `gorm:"default:'active'" json:"status"`
	StatusReason   string          `gorm:"default:''" json:"status_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TreasuryTransaction is an append-only ledger entry. Rows are never updated
// after completion; the only status transition is pending -> completed/failed
// for gateway deposits awaiting webhook confirmation.
type TreasuryTransaction struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	WalletID      uint            `gorm:"index;not null" json:"wallet_id"`
	Type          string          `gorm:"not null;index" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`
	Status        string          `gorm:"not null;default:'pending'" json:"status"`
	Reference     string          `gorm:"uniqueIndex;not null" json:"reference"`
	// GatewayRef is covered by a partial unique index created in InitDB;
	// gorm tags cannot express the WHERE clause that exempts empty values.
	GatewayRef  string    `json:"gateway_ref,omitempty"`
	ChallengeID *uint     `gorm:"index" json:"challenge_id,omitempty"`
	Description string    `json:"description"`
	Currency    string    `gorm:"default:'USD'" json:"currency"`
	Metadata    JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
