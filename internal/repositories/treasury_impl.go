package repositories

import (
	"context"
	"fmt"
	"time"

	"stakepot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type treasuryRepository struct {
	db *gorm.DB
}

func NewTreasuryRepository(db *gorm.DB) TreasuryRepository {
	return &treasuryRepository{db: db}
}

func (r *treasuryRepository) CreateWallet(wallet *models.TreasuryWallet) error {
	result := r.db.Create(wallet)
	if result.Error != nil {
		return fmt.Errorf("failed to create treasury wallet: %w", result.Error)
	}
	return nil
}

func (r *treasuryRepository) GetWalletByAdminID(adminID uint) (*models.TreasuryWallet, error) {
	var wallet models.TreasuryWallet
	if err := r.db.Where("admin_id = ?", adminID).First(&wallet).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get treasury wallet: %w", err)
	}
	return &wallet, nil
}

func (r *treasuryRepository) GetWalletByAdminIDForUpdate(adminID uint) (*models.TreasuryWallet, error) {
	var wallet models.TreasuryWallet
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("admin_id = ?", adminID).
		First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock treasury wallet: %w", err)
	}
	return &wallet, nil
}

func (r *treasuryRepository) UpdateWallet(wallet *models.TreasuryWallet) error {
	result := r.db.Save(wallet)
	if result.Error != nil {
		return fmt.Errorf("failed to update treasury wallet: %w", result.Error)
	}
	return nil
}

func (r *treasuryRepository) CreateTransaction(tx *models.TreasuryTransaction) error {
	result := r.db.Create(tx)
	if result.Error != nil {
		return fmt.Errorf("failed to create treasury transaction: %w", result.Error)
	}
	return nil
}

func (r *treasuryRepository) UpdateTransaction(tx *models.TreasuryTransaction) error {
	result := r.db.Save(tx)
	if result.Error != nil {
		return fmt.Errorf("failed to update treasury transaction: %w", result.Error)
	}
	return nil
}

func (r *treasuryRepository) GetTransactionByReference(reference string) (*models.TreasuryTransaction, error) {
	var tx models.TreasuryTransaction
	if err := r.db.Where("reference = ?", reference).First(&tx).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get treasury transaction: %w", err)
	}
	return &tx, nil
}

func (r *treasuryRepository) GetTransactionByGatewayRef(gatewayRef string) (*models.TreasuryTransaction, error) {
	var tx models.TreasuryTransaction
	if err := r.db.Where("gateway_ref = ?", gatewayRef).First(&tx).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get treasury transaction: %w", err)
	}
	return &tx, nil
}

func (r *treasuryRepository) GetChallengeTransaction(walletID, challengeID uint, txType string) (*models.TreasuryTransaction, error) {
	var tx models.TreasuryTransaction
	err := r.db.Where("wallet_id = ? AND challenge_id = ? AND type = ? AND status = ?",
		walletID, challengeID, txType, models.TxStatusCompleted).
		First(&tx).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get challenge transaction: %w", err)
	}
	return &tx, nil
}

func (r *treasuryRepository) ListTransactions(ctx context.Context, walletID uint, txType string, limit, offset int) ([]models.TreasuryTransaction, error) {
	var txns []models.TreasuryTransaction
	q := r.db.WithContext(ctx).Where("wallet_id = ?", walletID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list treasury transactions: %w", err)
	}
	return txns, nil
}

func (r *treasuryRepository) CountTransactions(ctx context.Context, walletID uint, txType string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.TreasuryTransaction{}).Where("wallet_id = ?", walletID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count treasury transactions: %w", err)
	}
	return count, nil
}

func (r *treasuryRepository) GetLedgerStats(ctx context.Context, walletID uint, start, end time.Time) (*LedgerStats, error) {
	var stats LedgerStats
	err := r.db.WithContext(ctx).
		Model(&models.TreasuryTransaction{}).
		Where("wallet_id = ? AND created_at BETWEEN ? AND ?", walletID, start, end).
		Select(`
			COUNT(*) as total_transactions,
			COALESCE(SUM(CASE WHEN type = 'deposit' AND status = 'completed' THEN amount ELSE 0 END), 0) as deposit_volume,
			COALESCE(SUM(CASE WHEN type = 'debit' AND status = 'completed' THEN amount ELSE 0 END), 0) as debit_volume,
			COALESCE(SUM(CASE WHEN type = 'credit' AND status = 'completed' THEN amount ELSE 0 END), 0) as credit_volume,
			COALESCE(SUM(CASE WHEN type = 'deposit' AND status = 'pending' THEN 1 ELSE 0 END), 0) as pending_deposits
		`).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger stats: %w", err)
	}
	return &stats, nil
}

func (r *treasuryRepository) ExecuteInTransaction(fn func(TreasuryRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&treasuryRepository{db: tx})
	})
}
