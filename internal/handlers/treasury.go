package handlers

import (
	"errors"
	"time"

	"stakepot/internal/models"
	"stakepot/internal/services/gateway"
	"stakepot/internal/services/treasury"
	"stakepot/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TreasuryHandler struct {
	treasuryService treasury.Service
	gatewayService  gateway.Service
}

func NewTreasuryHandler(treasuryService treasury.Service, gatewayService gateway.Service) *TreasuryHandler {
	return &TreasuryHandler{
		treasuryService: treasuryService,
		gatewayService:  gatewayService,
	}
}

// extractClaims is a helper shared by the admin handlers.
func extractClaims(c *fiber.Ctx) (*models.AdminClaims, error) {
	claims, ok := c.Locals("claims").(*models.AdminClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *TreasuryHandler) GetSummary(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	summary, err := h.treasuryService.GetSummary(c.Context(), claims.AdminID)
	if err != nil {
		return response.InternalError(c, "failed to get treasury summary")
	}

	return response.Success(c, fiber.Map{"treasury": summary})
}

func (h *TreasuryHandler) InitiateDeposit(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return response.BadRequest(c, "amount must be a positive decimal")
	}

	intent, err := h.gatewayService.CreateDeposit(c.Context(), claims.AdminID, amount, input.Currency)
	if err != nil {
		if errors.Is(err, treasury.ErrInvalidAmount) {
			return response.BadRequest(c, err.Error())
		}
		if errors.Is(err, treasury.ErrWalletFrozen) {
			return response.Conflict(c, "treasury wallet is frozen")
		}
		return response.InternalError(c, "failed to initiate deposit")
	}

	return response.Created(c, fiber.Map{"deposit": intent})
}

func (h *TreasuryHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", treasury.DefaultPageSize)
	offset := c.QueryInt("offset", 0)
	txType := c.Query("type")

	switch txType {
	case "", models.TreasuryTxDeposit, models.TreasuryTxDebit, models.TreasuryTxCredit:
	default:
		return response.BadRequest(c, "unknown transaction type")
	}

	txns, total, err := h.treasuryService.GetTransactionHistory(c.Context(), claims.AdminID, txType, limit, offset)
	if err != nil {
		if errors.Is(err, treasury.ErrWalletNotFound) {
			return response.NotFound(c, "treasury wallet not found")
		}
		return response.InternalError(c, "failed to get transactions")
	}

	return response.Success(c, fiber.Map{
		"transactions": txns,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *TreasuryHandler) GetStats(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return response.BadRequest(c, "from must be RFC3339")
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return response.BadRequest(c, "to must be RFC3339")
		}
		to = parsed
	}

	stats, err := h.treasuryService.GetStats(c.Context(), claims.AdminID, from, to)
	if err != nil {
		if errors.Is(err, treasury.ErrWalletNotFound) {
			return response.NotFound(c, "treasury wallet not found")
		}
		return response.InternalError(c, "failed to get stats")
	}

	return response.Success(c, fiber.Map{"stats": stats, "from": from, "to": to})
}

func (h *TreasuryHandler) FreezeWallet(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	if err := h.treasuryService.FreezeWallet(c.Context(), claims.AdminID, input.Reason); err != nil {
		if errors.Is(err, treasury.ErrWalletNotFound) {
			return response.NotFound(c, "treasury wallet not found")
		}
		return response.InternalError(c, "failed to freeze wallet")
	}

	return response.Success(c, fiber.Map{"message": "treasury wallet frozen"})
}

func (h *TreasuryHandler) UnfreezeWallet(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	if err := h.treasuryService.UnfreezeWallet(c.Context(), claims.AdminID); err != nil {
		if errors.Is(err, treasury.ErrWalletNotFound) {
			return response.NotFound(c, "treasury wallet not found")
		}
		return response.InternalError(c, "failed to unfreeze wallet")
	}

	return response.Success(c, fiber.Map{"message": "treasury wallet active"})
}
