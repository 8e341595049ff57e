package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stakepot/internal/models"
	"stakepot/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	repo    repositories.TreasuryRepository
	cache   CacheOperator
	config  Config
	metrics MetricsCollector
}

// NewService creates a new treasury service.
func NewService(repo repositories.TreasuryRepository, cache CacheOperator, config Config, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) GetOrCreateWallet(ctx context.Context, adminID uint) (*models.TreasuryWallet, error) {
	if s.cache != nil {
		var cached models.TreasuryWallet
		key := s.cache.GenerateKey(CachePrefix, "wallet", adminID)
		if found, _ := s.cache.Get(ctx, key, &cached); found {
			return &cached, nil
		}
	}

	wallet, err := s.repo.GetWalletByAdminID(adminID)
	if err != nil {
		if !errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, err
		}
		wallet = &models.TreasuryWallet{
			AdminID:  adminID,
			Currency: s.config.Currency,
			Status:   StatusActive,
		}
		if err := s.repo.CreateWallet(wallet); err != nil {
			return nil, fmt.Errorf("failed to create treasury wallet: %w", err)
		}
	}

	if s.cache != nil {
		key := s.cache.GenerateKey(CachePrefix, "wallet", adminID)
		if err := s.cache.SetWithTTL(ctx, key, wallet, CacheDuration); err != nil {
			s.metrics.RecordError("wallet", "cache_set_failed")
		}
	}
	return wallet, nil
}

func (s *service) RecordPendingDeposit(ctx context.Context, adminID uint, amount decimal.Decimal, gatewayRef, description string) (*models.TreasuryTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if s.exceedsDepositCap(amount) {
		return nil, fmt.Errorf("%w: exceeds deposit cap of %s", ErrInvalidAmount, s.config.MaxDepositAmount)
	}

	wallet, err := s.GetOrCreateWallet(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if wallet.Status != StatusActive {
		return nil, ErrWalletFrozen
	}

	// No balance movement yet; the snapshot is rewritten at completion.
	txn := &models.TreasuryTransaction{
		WalletID:      wallet.ID,
		Type:          models.TreasuryTxDeposit,
		Amount:        amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance,
		Status:        models.TxStatusPending,
		Reference:     uuid.NewString(),
		GatewayRef:    gatewayRef,
		Description:   description,
		Currency:      wallet.Currency,
	}
	if err := s.repo.CreateTransaction(txn); err != nil {
		s.metrics.RecordError("deposit_pending", "create_failed")
		return nil, err
	}
	return txn, nil
}

// Deposit finalizes a gateway deposit: it credits the balance and
// TotalDeposited and completes the matching pending row, or inserts a
// completed row when none exists. Replays on the same gatewayRef are no-ops.
func (s *service) Deposit(ctx context.Context, adminID uint, amount decimal.Decimal, gatewayRef string, metadata map[string]interface{}) (*models.TreasuryTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var out *models.TreasuryTransaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.TreasuryRepository) error {
		wallet, err := getOrCreateLocked(tx, adminID, s.config.Currency)
		if err != nil {
			return err
		}

		// The gatewayRef lookup happens under the wallet lock: a concurrent
		// delivery of the same event waits on the lock and then sees the
		// completed row instead of the pending one.
		var pending *models.TreasuryTransaction
		if gatewayRef != "" {
			existing, err := tx.GetTransactionByGatewayRef(gatewayRef)
			switch {
			case err == nil && existing.Status == models.TxStatusCompleted:
				out = existing // replayed webhook
				return nil
			case err == nil:
				pending = existing
			case !errors.Is(err, repositories.ErrTransactionNotFound):
				return err
			}
		}

		if wallet.Status != StatusActive {
			return ErrWalletFrozen
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Add(amount)
		wallet.TotalDeposited = wallet.TotalDeposited.Add(amount)
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		if pending != nil {
			pending.Status = models.TxStatusCompleted
			pending.BalanceBefore = before
			pending.BalanceAfter = wallet.Balance
			pending.Metadata = mergeMetadata(pending.Metadata, metadata)
			if err := tx.UpdateTransaction(pending); err != nil {
				return err
			}
			out = pending
			return nil
		}

		txn := &models.TreasuryTransaction{
			WalletID:      wallet.ID,
			Type:          models.TreasuryTxDeposit,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  wallet.Balance,
			Status:        models.TxStatusCompleted,
			Reference:     uuid.NewString(),
			GatewayRef:    gatewayRef,
			Description:   "Treasury deposit",
			Currency:      wallet.Currency,
			Metadata:      models.NewJSON(metadata),
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		s.metrics.RecordError("deposit", err.Error())
		return nil, err
	}

	s.invalidateCaches(ctx, adminID)
	s.metrics.RecordTransaction(models.TreasuryTxDeposit, amount)
	s.metrics.RecordBalanceChange(adminID, out.BalanceBefore, out.BalanceAfter)
	return out, nil
}

func (s *service) MarkDepositFailed(ctx context.Context, gatewayRef, reason string) error {
	return s.repo.ExecuteInTransaction(func(tx repositories.TreasuryRepository) error {
		txn, err := tx.GetTransactionByGatewayRef(gatewayRef)
		if err != nil {
			return err
		}
		if txn.Status != models.TxStatusPending {
			return ErrDepositNotPending
		}
		txn.Status = models.TxStatusFailed
		txn.Metadata = mergeMetadata(txn.Metadata, map[string]interface{}{"failure_reason": reason})
		return tx.UpdateTransaction(txn)
	})
}

// FundChallenge debits the stake from the treasury balance and links the
// debit row to the challenge. At most one debit exists per challenge; a
// re-run returns the original row without moving the balance.
func (s *service) FundChallenge(ctx context.Context, adminID, challengeID uint, amount decimal.Decimal) (*models.TreasuryTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var out *models.TreasuryTransaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.TreasuryRepository) error {
		wallet, err := tx.GetWalletByAdminIDForUpdate(adminID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if wallet.Status != StatusActive {
			return ErrWalletFrozen
		}

		if existing, err := tx.GetChallengeTransaction(wallet.ID, challengeID, models.TreasuryTxDebit); err == nil {
			out = existing
			return nil
		} else if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return err
		}

		if wallet.Balance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Sub(amount)
		wallet.TotalUsed = wallet.TotalUsed.Add(amount)
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		txn := &models.TreasuryTransaction{
			WalletID:      wallet.ID,
			Type:          models.TreasuryTxDebit,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  wallet.Balance,
			Status:        models.TxStatusCompleted,
			Reference:     uuid.NewString(),
			ChallengeID:   &challengeID,
			Description:   fmt.Sprintf("Stake for challenge #%d", challengeID),
			Currency:      wallet.Currency,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		s.metrics.RecordError("fund_challenge", err.Error())
		return nil, err
	}

	s.invalidateCaches(ctx, adminID)
	s.metrics.RecordTransaction(models.TreasuryTxDebit, amount)
	s.metrics.RecordBalanceChange(adminID, out.BalanceBefore, out.BalanceAfter)
	return out, nil
}

// SettleChallenge credits winnings for a previously funded challenge.
// Calling it twice for the same challenge returns the original credit row.
func (s *service) SettleChallenge(ctx context.Context, adminID, challengeID uint, amount decimal.Decimal) (*models.TreasuryTransaction, error) {
	return s.creditChallenge(ctx, adminID, challengeID, amount, false)
}

// RefundChallenge returns the staked amount of a voided challenge. The amount
// comes from the recorded funding debit. TotalUsed and TotalEarned stay
// untouched; the refund is a plain balance credit flagged in metadata.
func (s *service) RefundChallenge(ctx context.Context, adminID, challengeID uint) (*models.TreasuryTransaction, error) {
	return s.creditChallenge(ctx, adminID, challengeID, decimal.Zero, true)
}

func (s *service) creditChallenge(ctx context.Context, adminID, challengeID uint, amount decimal.Decimal, refund bool) (*models.TreasuryTransaction, error) {
	if !refund && !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	operation := "settle_challenge"
	if refund {
		operation = "refund_challenge"
	}

	var out *models.TreasuryTransaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.TreasuryRepository) error {
		wallet, err := tx.GetWalletByAdminIDForUpdate(adminID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if wallet.Status != StatusActive {
			return ErrWalletFrozen
		}

		debit, err := tx.GetChallengeTransaction(wallet.ID, challengeID, models.TreasuryTxDebit)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrChallengeNotFunded
			}
			return err
		}

		// Idempotency: one credit per challenge, settlement or refund.
		if existing, err := tx.GetChallengeTransaction(wallet.ID, challengeID, models.TreasuryTxCredit); err == nil {
			out = existing
			return nil
		} else if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return err
		}

		creditAmount := amount
		description := fmt.Sprintf("Winnings for challenge #%d", challengeID)
		metadata := models.JSON{}
		if refund {
			creditAmount = debit.Amount
			description = fmt.Sprintf("Stake refund for voided challenge #%d", challengeID)
			metadata["refund"] = true
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Add(creditAmount)
		if !refund {
			wallet.TotalEarned = wallet.TotalEarned.Add(creditAmount)
		}
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		txn := &models.TreasuryTransaction{
			WalletID:      wallet.ID,
			Type:          models.TreasuryTxCredit,
			Amount:        creditAmount,
			BalanceBefore: before,
			BalanceAfter:  wallet.Balance,
			Status:        models.TxStatusCompleted,
			Reference:     uuid.NewString(),
			ChallengeID:   &challengeID,
			Description:   description,
			Currency:      wallet.Currency,
			Metadata:      metadata,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		s.metrics.RecordError(operation, err.Error())
		return nil, err
	}

	s.invalidateCaches(ctx, adminID)
	s.metrics.RecordTransaction(models.TreasuryTxCredit, out.Amount)
	s.metrics.RecordBalanceChange(adminID, out.BalanceBefore, out.BalanceAfter)
	return out, nil
}

func (s *service) GetSummary(ctx context.Context, adminID uint) (*Summary, error) {
	if s.cache != nil {
		var cached Summary
		key := s.cache.GenerateKey(CachePrefix, "summary", adminID)
		if found, _ := s.cache.Get(ctx, key, &cached); found {
			return &cached, nil
		}
	}

	wallet, err := s.GetOrCreateWallet(ctx, adminID)
	if err != nil {
		return nil, err
	}

	summary := summaryFromWallet(wallet)
	if s.cache != nil {
		key := s.cache.GenerateKey(CachePrefix, "summary", adminID)
		if err := s.cache.SetWithTTL(ctx, key, summary, CacheDuration); err != nil {
			s.metrics.RecordError("summary", "cache_set_failed")
		}
	}
	return summary, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, adminID uint, txType string, limit, offset int) ([]models.TreasuryTransaction, int64, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	wallet, err := s.repo.GetWalletByAdminID(adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, 0, ErrWalletNotFound
		}
		return nil, 0, err
	}

	txns, err := s.repo.ListTransactions(ctx, wallet.ID, txType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountTransactions(ctx, wallet.ID, txType)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (s *service) GetStats(ctx context.Context, adminID uint, from, to time.Time) (*repositories.LedgerStats, error) {
	wallet, err := s.repo.GetWalletByAdminID(adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return s.repo.GetLedgerStats(ctx, wallet.ID, from, to)
}

func (s *service) FreezeWallet(ctx context.Context, adminID uint, reason string) error {
	return s.setWalletStatus(ctx, adminID, StatusFrozen, reason)
}

func (s *service) UnfreezeWallet(ctx context.Context, adminID uint) error {
	return s.setWalletStatus(ctx, adminID, StatusActive, "")
}

func (s *service) setWalletStatus(ctx context.Context, adminID uint, status, reason string) error {
	wallet, err := s.repo.GetWalletByAdminID(adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return ErrWalletNotFound
		}
		return err
	}
	wallet.Status = status
	wallet.StatusReason = reason
	if err := s.repo.UpdateWallet(wallet); err != nil {
		return err
	}
	s.invalidateCaches(ctx, adminID)
	return nil
}

// Helpers

func (s *service) exceedsDepositCap(amount decimal.Decimal) bool {
	return s.config.MaxDepositAmount.IsPositive() && amount.Cmp(s.config.MaxDepositAmount) > 0
}

func (s *service) invalidateCaches(ctx context.Context, adminID uint) {
	if s.cache == nil {
		return
	}
	keys := []string{
		s.cache.GenerateKey(CachePrefix, "summary", adminID),
		s.cache.GenerateKey(CachePrefix, "wallet", adminID),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.metrics.RecordError("cache", "invalidate_failed")
	}
}

func getOrCreateLocked(tx repositories.TreasuryRepository, adminID uint, currency string) (*models.TreasuryWallet, error) {
	wallet, err := tx.GetWalletByAdminIDForUpdate(adminID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}
	wallet = &models.TreasuryWallet{
		AdminID:  adminID,
		Currency: currency,
		Status:   StatusActive,
	}
	if err := tx.CreateWallet(wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func mergeMetadata(existing models.JSON, extra map[string]interface{}) models.JSON {
	merged := models.NewJSON(existing)
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
