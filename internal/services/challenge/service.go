// Package challenge manages the lifecycle of treasury-staked matches.
//
// A challenge moves open -> funded -> settled|voided. Funding debits the
// treasury wallet, settlement credits winnings back when the treasury side
// wins, and voiding refunds the original stake.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stakepot/internal/models"
	"stakepot/internal/repositories"
	"stakepot/internal/services/treasury"

	"github.com/shopspring/decimal"
)

// Payout multiplier for a won head-to-head challenge: stake back plus the
// opponent's matched stake.
var winPayoutFactor = decimal.NewFromInt(2)

// Service defines the challenge lifecycle interface.
type Service interface {
	Create(ctx context.Context, adminID uint, title, opponentName string, stake decimal.Decimal) (*models.Challenge, error)
	Fund(ctx context.Context, adminID, challengeID uint) (*models.Challenge, error)
	Settle(ctx context.Context, adminID, challengeID uint, outcome string) (*models.Challenge, error)
	Void(ctx context.Context, adminID, challengeID uint) (*models.Challenge, error)
	Get(ctx context.Context, adminID, challengeID uint) (*models.Challenge, error)
	List(ctx context.Context, adminID uint, status string, limit, offset int) ([]models.Challenge, error)
}

type service struct {
	repo     repositories.ChallengeRepository
	treasury treasury.Service
}

func NewService(repo repositories.ChallengeRepository, treasurySvc treasury.Service) Service {
	if repo == nil {
		panic("repo is required")
	}
	if treasurySvc == nil {
		panic("treasury service is required")
	}
	return &service{repo: repo, treasury: treasurySvc}
}

func (s *service) Create(ctx context.Context, adminID uint, title, opponentName string, stake decimal.Decimal) (*models.Challenge, error) {
	if !stake.IsPositive() {
		return nil, ErrInvalidStake
	}
	if title == "" {
		return nil, errors.New("title is required")
	}

	challenge := &models.Challenge{
		AdminID:      adminID,
		Title:        title,
		OpponentName: opponentName,
		StakeAmount:  stake,
		Status:       models.ChallengeStatusOpen,
	}
	if err := s.repo.Create(challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Fund stakes the challenge from the treasury wallet. The debit and the
// status change are not atomic across stores; the ledger row is written
// first so a crash leaves a funded ledger and an open challenge, which Fund
// re-run can repair (the ledger side is idempotent per challenge).
func (s *service) Fund(ctx context.Context, adminID, challengeID uint) (*models.Challenge, error) {
	challenge, err := s.getOwned(adminID, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.Status != models.ChallengeStatusOpen {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, challenge.Status)
	}

	if _, err := s.treasury.FundChallenge(ctx, adminID, challengeID, challenge.StakeAmount); err != nil {
		return nil, fmt.Errorf("failed to fund challenge: %w", err)
	}

	now := time.Now()
	challenge.Status = models.ChallengeStatusFunded
	challenge.FundedAt = &now
	if err := s.repo.Update(challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Settle records the outcome of a funded challenge. A win credits
// stake x 2 back to the treasury; a loss leaves the ledger as-is.
func (s *service) Settle(ctx context.Context, adminID, challengeID uint, outcome string) (*models.Challenge, error) {
	if outcome != models.ChallengeOutcomeWon && outcome != models.ChallengeOutcomeLost {
		return nil, ErrInvalidOutcome
	}

	challenge, err := s.getOwned(adminID, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.Status != models.ChallengeStatusFunded {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, challenge.Status)
	}

	if outcome == models.ChallengeOutcomeWon {
		payout := challenge.StakeAmount.Mul(winPayoutFactor)
		if _, err := s.treasury.SettleChallenge(ctx, adminID, challengeID, payout); err != nil {
			return nil, fmt.Errorf("failed to credit winnings: %w", err)
		}
	}

	now := time.Now()
	challenge.Status = models.ChallengeStatusSettled
	challenge.Outcome = outcome
	challenge.SettledAt = &now
	if err := s.repo.Update(challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Void cancels a funded challenge and refunds the stake.
func (s *service) Void(ctx context.Context, adminID, challengeID uint) (*models.Challenge, error) {
	challenge, err := s.getOwned(adminID, challengeID)
	if err != nil {
		return nil, err
	}

	switch challenge.Status {
	case models.ChallengeStatusFunded:
		if _, err := s.treasury.RefundChallenge(ctx, adminID, challengeID); err != nil {
			return nil, fmt.Errorf("failed to refund stake: %w", err)
		}
	case models.ChallengeStatusOpen:
		// Nothing staked yet, nothing to refund.
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, challenge.Status)
	}

	now := time.Now()
	challenge.Status = models.ChallengeStatusVoided
	challenge.Outcome = models.ChallengeOutcomeVoid
	challenge.SettledAt = &now
	if err := s.repo.Update(challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *service) Get(ctx context.Context, adminID, challengeID uint) (*models.Challenge, error) {
	return s.getOwned(adminID, challengeID)
}

func (s *service) List(ctx context.Context, adminID uint, status string, limit, offset int) ([]models.Challenge, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, adminID, status, limit, offset)
}

func (s *service) getOwned(adminID, challengeID uint) (*models.Challenge, error) {
	challenge, err := s.repo.GetByID(challengeID)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if challenge.AdminID != adminID {
		return nil, ErrChallengeNotFound
	}
	return challenge, nil
}
