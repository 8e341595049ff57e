package treasury

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"stakepot/internal/models"
	"stakepot/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory TreasuryRepository. ExecuteInTransaction snapshots
// state and restores it on error, mimicking a rollback.
type fakeRepo struct {
	wallets      map[uint]*models.TreasuryWallet // keyed by admin ID
	transactions []*models.TreasuryTransaction
	nextID       uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{wallets: make(map[uint]*models.TreasuryWallet), nextID: 1}
}

func (f *fakeRepo) CreateWallet(w *models.TreasuryWallet) error {
	if _, ok := f.wallets[w.AdminID]; ok {
		return repositories.ErrDuplicateWallet
	}
	w.ID = f.nextID
	f.nextID++
	cp := *w
	f.wallets[w.AdminID] = &cp
	return nil
}

func (f *fakeRepo) GetWalletByAdminID(adminID uint) (*models.TreasuryWallet, error) {
	w, ok := f.wallets[adminID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeRepo) GetWalletByAdminIDForUpdate(adminID uint) (*models.TreasuryWallet, error) {
	return f.GetWalletByAdminID(adminID)
}

func (f *fakeRepo) UpdateWallet(w *models.TreasuryWallet) error {
	stored, ok := f.wallets[w.AdminID]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	cp := *w
	cp.ID = stored.ID
	f.wallets[w.AdminID] = &cp
	return nil
}

func (f *fakeRepo) CreateTransaction(tx *models.TreasuryTransaction) error {
	tx.ID = f.nextID
	f.nextID++
	tx.CreatedAt = time.Now()
	cp := *tx
	f.transactions = append(f.transactions, &cp)
	return nil
}

func (f *fakeRepo) UpdateTransaction(tx *models.TreasuryTransaction) error {
	for i, existing := range f.transactions {
		if existing.ID == tx.ID {
			cp := *tx
			f.transactions[i] = &cp
			return nil
		}
	}
	return repositories.ErrTransactionNotFound
}

func (f *fakeRepo) GetTransactionByReference(reference string) (*models.TreasuryTransaction, error) {
	for _, tx := range f.transactions {
		if tx.Reference == reference {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeRepo) GetTransactionByGatewayRef(gatewayRef string) (*models.TreasuryTransaction, error) {
	for _, tx := range f.transactions {
		if tx.GatewayRef == gatewayRef && gatewayRef != "" {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeRepo) GetChallengeTransaction(walletID, challengeID uint, txType string) (*models.TreasuryTransaction, error) {
	for _, tx := range f.transactions {
		if tx.WalletID == walletID && tx.ChallengeID != nil && *tx.ChallengeID == challengeID &&
			tx.Type == txType && tx.Status == models.TxStatusCompleted {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeRepo) ListTransactions(_ context.Context, walletID uint, txType string, limit, offset int) ([]models.TreasuryTransaction, error) {
	var out []models.TreasuryTransaction
	for _, tx := range f.transactions {
		if tx.WalletID == walletID && (txType == "" || tx.Type == txType) {
			out = append(out, *tx)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountTransactions(_ context.Context, walletID uint, txType string) (int64, error) {
	var count int64
	for _, tx := range f.transactions {
		if tx.WalletID == walletID && (txType == "" || tx.Type == txType) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) GetLedgerStats(_ context.Context, walletID uint, _, _ time.Time) (*repositories.LedgerStats, error) {
	stats := &repositories.LedgerStats{
		DepositVolume: decimal.Zero,
		DebitVolume:   decimal.Zero,
		CreditVolume:  decimal.Zero,
	}
	for _, tx := range f.transactions {
		if tx.WalletID != walletID {
			continue
		}
		stats.TotalTransactions++
		if tx.Status == models.TxStatusPending && tx.Type == models.TreasuryTxDeposit {
			stats.PendingDeposits++
		}
		if tx.Status != models.TxStatusCompleted {
			continue
		}
		switch tx.Type {
		case models.TreasuryTxDeposit:
			stats.DepositVolume = stats.DepositVolume.Add(tx.Amount)
		case models.TreasuryTxDebit:
			stats.DebitVolume = stats.DebitVolume.Add(tx.Amount)
		case models.TreasuryTxCredit:
			stats.CreditVolume = stats.CreditVolume.Add(tx.Amount)
		}
	}
	return stats, nil
}

func (f *fakeRepo) ExecuteInTransaction(fn func(repositories.TreasuryRepository) error) error {
	snapshotWallets := make(map[uint]*models.TreasuryWallet, len(f.wallets))
	for k, v := range f.wallets {
		cp := *v
		snapshotWallets[k] = &cp
	}
	snapshotTxns := make([]*models.TreasuryTransaction, len(f.transactions))
	for i, tx := range f.transactions {
		cp := *tx
		snapshotTxns[i] = &cp
	}
	snapshotID := f.nextID

	if err := fn(f); err != nil {
		f.wallets = snapshotWallets
		f.transactions = snapshotTxns
		f.nextID = snapshotID
		return err
	}
	return nil
}

// contendedRepo invokes rival once while the caller waits on the wallet row
// lock, mimicking a concurrent transaction committing first.
type contendedRepo struct {
	*fakeRepo
	rival func()
	fired bool
}

func (r *contendedRepo) GetWalletByAdminIDForUpdate(adminID uint) (*models.TreasuryWallet, error) {
	if !r.fired && r.rival != nil {
		r.fired = true
		r.rival()
	}
	return r.fakeRepo.GetWalletByAdminIDForUpdate(adminID)
}

func (r *contendedRepo) ExecuteInTransaction(fn func(repositories.TreasuryRepository) error) error {
	return r.fakeRepo.ExecuteInTransaction(func(repositories.TreasuryRepository) error {
		return fn(r)
	})
}

// fakeCache is an in-memory CacheOperator.
type fakeCache struct {
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	data, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *fakeCache) SetWithTTL(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = data
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.store, k)
	}
	return nil
}

func (c *fakeCache) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func newTestService(repo repositories.TreasuryRepository) Service {
	return NewService(repo, nil, Config{}, nil)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

const adminID = uint(1)

func seedWallet(t *testing.T, repo *fakeRepo, balance string) *models.TreasuryWallet {
	t.Helper()
	wallet := &models.TreasuryWallet{
		AdminID:        adminID,
		Balance:        dec(balance),
		TotalDeposited: dec(balance),
		TotalUsed:      decimal.Zero,
		TotalEarned:    decimal.Zero,
		Currency:       "USD",
		Status:         StatusActive,
	}
	require.NoError(t, repo.CreateWallet(wallet))
	return wallet
}

func TestGetOrCreateWallet(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	wallet, err := svc.GetOrCreateWallet(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, adminID, wallet.AdminID)
	assert.True(t, wallet.Balance.IsZero())
	assert.Equal(t, StatusActive, wallet.Status)

	again, err := svc.GetOrCreateWallet(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, again.ID)
}

func TestDeposit(t *testing.T) {
	t.Run("credits balance and total deposited", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "100.00")

		txn, err := svc.Deposit(context.Background(), adminID, dec("50.25"), "pi_1", nil)
		require.NoError(t, err)

		assert.Equal(t, models.TreasuryTxDeposit, txn.Type)
		assert.Equal(t, models.TxStatusCompleted, txn.Status)
		assert.True(t, txn.BalanceBefore.Equal(dec("100.00")), "before=%s", txn.BalanceBefore)
		assert.True(t, txn.BalanceAfter.Equal(dec("150.25")), "after=%s", txn.BalanceAfter)
		assert.True(t, txn.BalanceAfter.Equal(txn.BalanceBefore.Add(txn.Amount)))

		wallet, err := repo.GetWalletByAdminID(adminID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.Equal(dec("150.25")))
		assert.True(t, wallet.TotalDeposited.Equal(dec("150.25")))
	})

	t.Run("creates wallet on first deposit", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)

		txn, err := svc.Deposit(context.Background(), adminID, dec("10.00"), "pi_first", nil)
		require.NoError(t, err)
		assert.True(t, txn.BalanceBefore.IsZero())
		assert.True(t, txn.BalanceAfter.Equal(dec("10.00")))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "100.00")

		for _, amount := range []string{"0", "-5.00"} {
			_, err := svc.Deposit(context.Background(), adminID, dec(amount), "", nil)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	})

	t.Run("rejects frozen wallet", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		wallet := seedWallet(t, repo, "100.00")
		wallet.Status = StatusFrozen
		require.NoError(t, repo.UpdateWallet(wallet))

		_, err := svc.Deposit(context.Background(), adminID, dec("5.00"), "pi_2", nil)
		assert.ErrorIs(t, err, ErrWalletFrozen)
	})

	t.Run("replayed gateway reference is a no-op", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "100.00")

		first, err := svc.Deposit(context.Background(), adminID, dec("50.00"), "pi_3", nil)
		require.NoError(t, err)

		second, err := svc.Deposit(context.Background(), adminID, dec("50.00"), "pi_3", nil)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		wallet, err := repo.GetWalletByAdminID(adminID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.Equal(dec("150.00")), "balance=%s", wallet.Balance)
	})

	t.Run("finalizes a pending deposit row in place", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "100.00")

		pending, err := svc.RecordPendingDeposit(context.Background(), adminID, dec("25.00"), "pi_4", "Gateway deposit pi_4")
		require.NoError(t, err)
		assert.Equal(t, models.TxStatusPending, pending.Status)

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("100.00")), "pending deposit must not move the balance")

		completed, err := svc.Deposit(context.Background(), adminID, dec("25.00"), "pi_4", nil)
		require.NoError(t, err)
		assert.Equal(t, pending.ID, completed.ID)
		assert.Equal(t, models.TxStatusCompleted, completed.Status)
		assert.True(t, completed.BalanceBefore.Equal(dec("100.00")))
		assert.True(t, completed.BalanceAfter.Equal(dec("125.00")))

		count, _ := repo.CountTransactions(context.Background(), completed.WalletID, models.TreasuryTxDeposit)
		assert.Equal(t, int64(1), count)
	})

	t.Run("simultaneous deliveries of one event credit once", func(t *testing.T) {
		inner := newFakeRepo()
		svc := newTestService(inner)
		seedWallet(t, inner, "100.00")

		_, err := svc.RecordPendingDeposit(context.Background(), adminID, dec("25.00"), "pi_race", "")
		require.NoError(t, err)

		// The rival delivery completes while we hold no lock yet.
		var rivalTxn *models.TreasuryTransaction
		repo := &contendedRepo{fakeRepo: inner}
		repo.rival = func() {
			txn, rerr := svc.Deposit(context.Background(), adminID, dec("25.00"), "pi_race", nil)
			require.NoError(t, rerr)
			rivalTxn = txn
		}

		contested := newTestService(repo)
		txn, err := contested.Deposit(context.Background(), adminID, dec("25.00"), "pi_race", nil)
		require.NoError(t, err)
		require.NotNil(t, rivalTxn)
		assert.Equal(t, rivalTxn.ID, txn.ID)

		wallet, _ := inner.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("125.00")), "balance=%s", wallet.Balance)
		count, _ := inner.CountTransactions(context.Background(), txn.WalletID, models.TreasuryTxDeposit)
		assert.Equal(t, int64(1), count)
	})
}

func TestMarkDepositFailed(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedWallet(t, repo, "100.00")

	pending, err := svc.RecordPendingDeposit(context.Background(), adminID, dec("25.00"), "pi_fail", "")
	require.NoError(t, err)

	require.NoError(t, svc.MarkDepositFailed(context.Background(), "pi_fail", "card declined"))

	stored, err := repo.GetTransactionByGatewayRef("pi_fail")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusFailed, stored.Status)
	assert.Equal(t, "card declined", stored.Metadata["failure_reason"])
	assert.Equal(t, pending.ID, stored.ID)

	// Already failed: not pending anymore.
	err = svc.MarkDepositFailed(context.Background(), "pi_fail", "again")
	assert.ErrorIs(t, err, ErrDepositNotPending)

	wallet, _ := repo.GetWalletByAdminID(adminID)
	assert.True(t, wallet.Balance.Equal(dec("100.00")))
}

func TestFundChallenge(t *testing.T) {
	challengeID := uint(7)

	t.Run("debits balance and records total used", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "200.00")

		txn, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("75.50"))
		require.NoError(t, err)

		assert.Equal(t, models.TreasuryTxDebit, txn.Type)
		require.NotNil(t, txn.ChallengeID)
		assert.Equal(t, challengeID, *txn.ChallengeID)
		assert.True(t, txn.BalanceAfter.Equal(txn.BalanceBefore.Sub(txn.Amount)))

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("124.50")))
		assert.True(t, wallet.TotalUsed.Equal(dec("75.50")))
	})

	t.Run("refuses insufficient balance without writing rows", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "50.00")

		_, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("50.01"))
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("50.00")))
		assert.Empty(t, repo.transactions)
	})

	t.Run("allows debiting the exact balance", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "50.00")

		txn, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("50.00"))
		require.NoError(t, err)
		assert.True(t, txn.BalanceAfter.IsZero())
	})

	t.Run("requires an existing wallet", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)

		_, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("10.00"))
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})

	t.Run("replayed funding returns the original debit", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "100.00")

		first, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("40.00"))
		require.NoError(t, err)
		second, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("40.00"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("60.00")), "balance=%s", wallet.Balance)
		assert.True(t, wallet.TotalUsed.Equal(dec("40.00")), "total used=%s", wallet.TotalUsed)
		count, _ := repo.CountTransactions(context.Background(), first.WalletID, models.TreasuryTxDebit)
		assert.Equal(t, int64(1), count)
	})
}

func TestSettleChallenge(t *testing.T) {
	challengeID := uint(9)

	setup := func(t *testing.T) (*fakeRepo, Service) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "200.00")
		_, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("60.00"))
		require.NoError(t, err)
		return repo, svc
	}

	t.Run("credits winnings and total earned", func(t *testing.T) {
		repo, svc := setup(t)

		txn, err := svc.SettleChallenge(context.Background(), adminID, challengeID, dec("120.00"))
		require.NoError(t, err)

		assert.Equal(t, models.TreasuryTxCredit, txn.Type)
		assert.True(t, txn.BalanceBefore.Equal(dec("140.00")))
		assert.True(t, txn.BalanceAfter.Equal(dec("260.00")))

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.TotalEarned.Equal(dec("120.00")))
		assert.True(t, wallet.TotalUsed.Equal(dec("60.00")), "settlement must not reduce total used")
	})

	t.Run("rejects settlement of an unfunded challenge", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		seedWallet(t, repo, "200.00")

		_, err := svc.SettleChallenge(context.Background(), adminID, uint(999), dec("10.00"))
		assert.ErrorIs(t, err, ErrChallengeNotFunded)

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("200.00")))
	})

	t.Run("double settlement returns the original credit", func(t *testing.T) {
		repo, svc := setup(t)

		first, err := svc.SettleChallenge(context.Background(), adminID, challengeID, dec("120.00"))
		require.NoError(t, err)
		second, err := svc.SettleChallenge(context.Background(), adminID, challengeID, dec("120.00"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		wallet, _ := repo.GetWalletByAdminID(adminID)
		assert.True(t, wallet.Balance.Equal(dec("260.00")), "balance=%s", wallet.Balance)
	})
}

func TestRefundChallenge(t *testing.T) {
	challengeID := uint(11)

	repo := newFakeRepo()
	svc := newTestService(repo)
	seedWallet(t, repo, "100.00")

	_, err := svc.FundChallenge(context.Background(), adminID, challengeID, dec("40.00"))
	require.NoError(t, err)

	txn, err := svc.RefundChallenge(context.Background(), adminID, challengeID)
	require.NoError(t, err)

	assert.True(t, txn.Amount.Equal(dec("40.00")), "refund amount comes from the recorded debit")
	assert.Equal(t, true, txn.Metadata["refund"])

	wallet, _ := repo.GetWalletByAdminID(adminID)
	assert.True(t, wallet.Balance.Equal(dec("100.00")))
	assert.True(t, wallet.TotalUsed.Equal(dec("40.00")), "running totals stay monotonic")
	assert.True(t, wallet.TotalEarned.IsZero(), "a refund is not earnings")
}

func TestRunningTotalsNeverDecrease(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedWallet(t, repo, "0.00")
	ctx := context.Background()

	type totals struct{ deposited, used, earned decimal.Decimal }
	read := func() totals {
		w, err := repo.GetWalletByAdminID(adminID)
		require.NoError(t, err)
		return totals{w.TotalDeposited, w.TotalUsed, w.TotalEarned}
	}

	prev := read()
	steps := []func() error{
		func() error { _, err := svc.Deposit(ctx, adminID, dec("500.00"), "pi_a", nil); return err },
		func() error { _, err := svc.FundChallenge(ctx, adminID, 1, dec("100.00")); return err },
		func() error { _, err := svc.SettleChallenge(ctx, adminID, 1, dec("200.00")); return err },
		func() error { _, err := svc.FundChallenge(ctx, adminID, 2, dec("50.00")); return err },
		func() error { _, err := svc.RefundChallenge(ctx, adminID, 2); return err },
		func() error { _, err := svc.Deposit(ctx, adminID, dec("1.00"), "pi_b", nil); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		cur := read()
		assert.True(t, cur.deposited.Cmp(prev.deposited) >= 0, "step %d: total deposited decreased", i)
		assert.True(t, cur.used.Cmp(prev.used) >= 0, "step %d: total used decreased", i)
		assert.True(t, cur.earned.Cmp(prev.earned) >= 0, "step %d: total earned decreased", i)
		prev = cur
	}

	// Every row satisfies the snapshot identity.
	for _, tx := range repo.transactions {
		if tx.Status != models.TxStatusCompleted {
			continue
		}
		switch tx.Type {
		case models.TreasuryTxDebit:
			assert.True(t, tx.BalanceAfter.Equal(tx.BalanceBefore.Sub(tx.Amount)), "tx %d", tx.ID)
		default:
			assert.True(t, tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.Amount)), "tx %d", tx.ID)
		}
	}
}

func TestGetSummary(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedWallet(t, repo, "500.00")
	ctx := context.Background()

	_, err := svc.FundChallenge(ctx, adminID, 1, dec("100.00"))
	require.NoError(t, err)
	_, err = svc.SettleChallenge(ctx, adminID, 1, dec("250.00"))
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, adminID)
	require.NoError(t, err)

	assert.True(t, summary.Balance.Equal(dec("650.00")))
	assert.True(t, summary.TotalUsed.Equal(dec("100.00")))
	assert.True(t, summary.TotalEarned.Equal(dec("250.00")))
	assert.True(t, summary.NetEarnings.Equal(dec("150.00")))
}

func TestWalletCaching(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := NewService(repo, cache, Config{}, nil)
	seedWallet(t, repo, "100.00")
	ctx := context.Background()

	wallet, err := svc.GetOrCreateWallet(ctx, adminID)
	require.NoError(t, err)

	key := cache.GenerateKey(CachePrefix, "wallet", adminID)
	_, cached := cache.store[key]
	assert.True(t, cached)

	// Served from cache: a write behind the service's back stays invisible.
	stored, _ := repo.GetWalletByAdminID(adminID)
	stored.Balance = dec("999.00")
	require.NoError(t, repo.UpdateWallet(stored))

	again, err := svc.GetOrCreateWallet(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(wallet.Balance))

	// Any ledger mutation drops the key.
	_, err = svc.FundChallenge(ctx, adminID, 1, dec("10.00"))
	require.NoError(t, err)
	_, cached = cache.store[key]
	assert.False(t, cached)

	fresh, err := svc.GetOrCreateWallet(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(dec("989.00")), "balance=%s", fresh.Balance)
}

func TestGetTransactionHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedWallet(t, repo, "1000.00")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.FundChallenge(ctx, adminID, uint(100+i), dec("10.00"))
		require.NoError(t, err)
	}
	_, err := svc.SettleChallenge(ctx, adminID, 100, dec("20.00"))
	require.NoError(t, err)

	t.Run("filters by type", func(t *testing.T) {
		txns, total, err := svc.GetTransactionHistory(ctx, adminID, models.TreasuryTxDebit, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		for _, tx := range txns {
			assert.Equal(t, models.TreasuryTxDebit, tx.Type)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		txns, total, err := svc.GetTransactionHistory(ctx, adminID, "", 2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Len(t, txns, 2)
	})

	t.Run("clamps the page size", func(t *testing.T) {
		txns, _, err := svc.GetTransactionHistory(ctx, adminID, "", MaxPageSize+500, 0)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(txns), MaxPageSize)
	})

	t.Run("missing wallet", func(t *testing.T) {
		_, _, err := svc.GetTransactionHistory(ctx, uint(42), "", 10, 0)
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})
}

func TestFreezeUnfreeze(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedWallet(t, repo, "100.00")
	ctx := context.Background()

	require.NoError(t, svc.FreezeWallet(ctx, adminID, "suspicious settlement pattern"))

	_, err := svc.FundChallenge(ctx, adminID, 1, dec("10.00"))
	assert.ErrorIs(t, err, ErrWalletFrozen)
	_, err = svc.Deposit(ctx, adminID, dec("10.00"), "pi_frozen", nil)
	assert.ErrorIs(t, err, ErrWalletFrozen)

	require.NoError(t, svc.UnfreezeWallet(ctx, adminID))
	_, err = svc.FundChallenge(ctx, adminID, 1, dec("10.00"))
	assert.NoError(t, err)
}
