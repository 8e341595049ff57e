// Package gateway wraps the payment gateway the admin funds the treasury
// through. The gateway is an opaque collaborator: this package only creates
// payment intents and consumes their webhook confirmations.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"stakepot/internal/services/treasury"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/webhook"
)

var minorUnitFactor = decimal.NewFromInt(100)

// Config holds the gateway credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// DepositIntent is what the panel needs to complete a deposit client-side.
type DepositIntent struct {
	Reference    string          `json:"reference"`
	GatewayRef   string          `json:"gateway_ref"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// Service defines the gateway operations.
type Service interface {
	CreateDeposit(ctx context.Context, adminID uint, amount decimal.Decimal, currency string) (*DepositIntent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type service struct {
	treasury treasury.Service
	config   Config
}

func NewService(treasurySvc treasury.Service, config Config) Service {
	if treasurySvc == nil {
		panic("treasury service is required")
	}
	stripe.Key = config.SecretKey
	return &service{treasury: treasurySvc, config: config}
}

// CreateDeposit creates a PaymentIntent for the amount and records a pending
// deposit row against it. The balance moves only when the webhook confirms.
func (s *service) CreateDeposit(ctx context.Context, adminID uint, amount decimal.Decimal, currency string) (*DepositIntent, error) {
	if !amount.IsPositive() {
		return nil, treasury.ErrInvalidAmount
	}
	if currency == "" {
		currency = treasury.DefaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.AddMetadata("admin_id", strconv.FormatUint(uint64(adminID), 10))
	params.AddMetadata("purpose", "treasury_deposit")

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	txn, err := s.treasury.RecordPendingDeposit(ctx, adminID, amount, pi.ID,
		fmt.Sprintf("Gateway deposit %s", pi.ID))
	if err != nil {
		return nil, err
	}

	return &DepositIntent{
		Reference:    txn.Reference,
		GatewayRef:   pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// HandleWebhook verifies the signature over the raw payload and applies the
// event to the ledger. Replayed events are no-ops.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return s.applyEvent(ctx, event)
}

func (s *service) applyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		return s.handleDepositSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		return s.handleDepositFailed(ctx, event)
	default:
		log.Printf("Ignoring gateway event %s (%s)", event.ID, event.Type)
		return nil
	}
}

func (s *service) handleDepositSucceeded(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("failed to parse payment intent: %w", err)
	}

	adminID, err := adminIDFromIntent(&pi)
	if err != nil {
		return err
	}

	amount := fromMinorUnits(pi.Amount)
	txn, err := s.treasury.Deposit(ctx, adminID, amount, pi.ID, map[string]interface{}{
		"gateway_event": event.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to finalize deposit %s: %w", pi.ID, err)
	}

	log.Printf("Deposit %s completed: %s %s (balance %s -> %s)",
		pi.ID, txn.Amount, txn.Currency, txn.BalanceBefore, txn.BalanceAfter)
	return nil
}

func (s *service) handleDepositFailed(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("failed to parse payment intent: %w", err)
	}

	reason := "payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}

	if err := s.treasury.MarkDepositFailed(ctx, pi.ID, reason); err != nil {
		// A failure event for an unknown or already-final intent is not
		// actionable; log and acknowledge so the gateway stops retrying.
		log.Printf("Could not mark deposit %s failed: %v", pi.ID, err)
	}
	return nil
}

func adminIDFromIntent(pi *stripe.PaymentIntent) (uint, error) {
	raw, ok := pi.Metadata["admin_id"]
	if !ok {
		return 0, fmt.Errorf("payment intent %s has no admin_id metadata", pi.ID)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("payment intent %s has invalid admin_id: %w", pi.ID, err)
	}
	return uint(id), nil
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitFactor).Round(0).IntPart()
}

func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

