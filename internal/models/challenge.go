package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Challenge statuses
const (
	ChallengeStatusOpen    = "open"
	ChallengeStatusFunded  = "funded"
	ChallengeStatusSettled = "settled"
	ChallengeStatusVoided  = "voided"
)

// Challenge outcomes
const (
	ChallengeOutcomeWon  = "won"
	ChallengeOutcomeLost = "lost"
	ChallengeOutcomeVoid = "void"
)

// Challenge is a head-to-head match staked from the treasury wallet.
type Challenge struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	AdminID      uint            `gorm:"index;not null" json:"admin_id"`
	Title        string          `gorm:"not null" json:"title"`
	OpponentName string          `json:"opponent_name"`
	StakeAmount  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"stake_amount"`
	Status       string          `gorm:"not null;default:'open';index" json:"status"`
	Outcome      string          `gorm:"default:''" json:"outcome,omitempty"`
	FundedAt     *time.Time      `json:"funded_at,omitempty"`
	SettledAt    *time.Time      `json:"settled_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
