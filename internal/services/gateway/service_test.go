package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"stakepot/internal/models"
	"stakepot/internal/services/treasury"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

type stubTreasury struct {
	treasury.Service

	deposits    []depositCall
	failedRefs  []string
	depositErr  error
	markFailErr error
}

type depositCall struct {
	adminID    uint
	amount     decimal.Decimal
	gatewayRef string
	metadata   map[string]interface{}
}

func (s *stubTreasury) Deposit(_ context.Context, adminID uint, amount decimal.Decimal, gatewayRef string, metadata map[string]interface{}) (*models.TreasuryTransaction, error) {
	if s.depositErr != nil {
		return nil, s.depositErr
	}
	s.deposits = append(s.deposits, depositCall{adminID, amount, gatewayRef, metadata})
	return &models.TreasuryTransaction{
		Type:          models.TreasuryTxDeposit,
		Amount:        amount,
		GatewayRef:    gatewayRef,
		Status:        models.TxStatusCompleted,
		Currency:      "USD",
		BalanceBefore: decimal.Zero,
		BalanceAfter:  amount,
	}, nil
}

func (s *stubTreasury) MarkDepositFailed(_ context.Context, gatewayRef, reason string) error {
	if s.markFailErr != nil {
		return s.markFailErr
	}
	s.failedRefs = append(s.failedRefs, gatewayRef)
	return nil
}

func newTestService(stub *stubTreasury) *service {
	return NewService(stub, Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test_secret",
	}).(*service)
}

func intentEvent(eventType, intentID string, amountMinor int64, adminID string) stripe.Event {
	raw := fmt.Sprintf(`{"id": %q, "amount": %d, "metadata": {"admin_id": %q}}`, intentID, amountMinor, adminID)
	return stripe.Event{
		ID:   "evt_" + intentID,
		Type: eventType,
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestApplyEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeded intent finalizes the deposit", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		err := svc.applyEvent(ctx, intentEvent("payment_intent.succeeded", "pi_1", 5025, "7"))
		require.NoError(t, err)

		require.Len(t, stub.deposits, 1)
		call := stub.deposits[0]
		assert.Equal(t, uint(7), call.adminID)
		assert.True(t, call.amount.Equal(decimal.New(5025, -2)), "amount=%s", call.amount)
		assert.Equal(t, "pi_1", call.gatewayRef)
		assert.Equal(t, "evt_pi_1", call.metadata["gateway_event"])
	})

	t.Run("succeeded intent without admin metadata is an error", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		event := stripe.Event{
			ID:   "evt_x",
			Type: "payment_intent.succeeded",
			Data: &stripe.EventData{Raw: json.RawMessage(`{"id": "pi_x", "amount": 100}`)},
		}
		err := svc.applyEvent(ctx, event)
		assert.Error(t, err)
		assert.Empty(t, stub.deposits)
	})

	t.Run("deposit failure propagates so the gateway retries", func(t *testing.T) {
		stub := &stubTreasury{depositErr: treasury.ErrWalletFrozen}
		svc := newTestService(stub)

		err := svc.applyEvent(ctx, intentEvent("payment_intent.succeeded", "pi_2", 1000, "7"))
		assert.ErrorIs(t, err, treasury.ErrWalletFrozen)
	})

	t.Run("failed intent marks the pending deposit failed", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		err := svc.applyEvent(ctx, intentEvent("payment_intent.payment_failed", "pi_3", 1000, "7"))
		require.NoError(t, err)
		assert.Equal(t, []string{"pi_3"}, stub.failedRefs)
	})

	t.Run("failed intent for an unknown deposit is acknowledged", func(t *testing.T) {
		stub := &stubTreasury{markFailErr: treasury.ErrDepositNotPending}
		svc := newTestService(stub)

		err := svc.applyEvent(ctx, intentEvent("payment_intent.payment_failed", "pi_4", 1000, "7"))
		assert.NoError(t, err)
	})

	t.Run("unrelated events are ignored", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		event := stripe.Event{
			ID:   "evt_other",
			Type: "customer.created",
			Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
		}
		err := svc.applyEvent(ctx, event)
		assert.NoError(t, err)
		assert.Empty(t, stub.deposits)
		assert.Empty(t, stub.failedRefs)
	})
}

// signPayload produces a Stripe-Signature header value for payload using the
// v1 scheme (HMAC-SHA256 over "{timestamp}.{payload}").
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func webhookPayload(eventType, intentID string, amountMinor int64, adminID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id": "evt_%s", "type": %q, "api_version": %q, "data": {"object": {"id": %q, "amount": %d, "metadata": {"admin_id": %q}}}}`,
		intentID, eventType, stripe.APIVersion, intentID, amountMinor, adminID,
	))
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()
	const secret = "whsec_test_secret"

	t.Run("valid signature applies the event", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		payload := webhookPayload("payment_intent.succeeded", "pi_ok", 2500, "3")
		signature := signPayload(payload, secret, time.Now())

		require.NoError(t, svc.HandleWebhook(ctx, payload, signature))
		require.Len(t, stub.deposits, 1)
		assert.Equal(t, uint(3), stub.deposits[0].adminID)
		assert.True(t, stub.deposits[0].amount.Equal(decimal.New(2500, -2)))
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		payload := webhookPayload("payment_intent.succeeded", "pi_bad", 2500, "3")
		signature := signPayload(payload, "whsec_wrong", time.Now())

		err := svc.HandleWebhook(ctx, payload, signature)
		assert.Error(t, err)
		assert.Empty(t, stub.deposits)
	})

	t.Run("stale timestamp is rejected", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		payload := webhookPayload("payment_intent.succeeded", "pi_old", 2500, "3")
		signature := signPayload(payload, secret, time.Now().Add(-time.Hour))

		err := svc.HandleWebhook(ctx, payload, signature)
		assert.Error(t, err)
		assert.Empty(t, stub.deposits)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		stub := &stubTreasury{}
		svc := newTestService(stub)

		payload := webhookPayload("payment_intent.succeeded", "pi_tamper", 2500, "3")
		signature := signPayload(payload, secret, time.Now())
		tampered := webhookPayload("payment_intent.succeeded", "pi_tamper", 9999999, "3")

		err := svc.HandleWebhook(ctx, tampered, signature)
		assert.Error(t, err)
		assert.Empty(t, stub.deposits)
	})
}

func TestMinorUnitConversion(t *testing.T) {
	cases := []struct {
		amount string
		minor  int64
	}{
		{"10.00", 1000},
		{"0.01", 1},
		{"123.45", 12345},
		{"99.999", 10000}, // rounds to the nearest cent
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.amount)
		require.NoError(t, err)
		assert.Equal(t, tc.minor, toMinorUnits(d), "amount %s", tc.amount)
	}

	assert.True(t, fromMinorUnits(5025).Equal(decimal.New(5025, -2)))
	assert.Equal(t, "50.25", fromMinorUnits(5025).String())
}
