package handlers

import (
	"errors"

	"stakepot/internal/services/challenge"
	"stakepot/internal/services/treasury"
	"stakepot/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ChallengeHandler struct {
	challengeService challenge.Service
}

func NewChallengeHandler(challengeService challenge.Service) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) Create(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Title        string `json:"title"`
		OpponentName string `json:"opponent_name"`
		StakeAmount  string `json:"stake_amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	stake, err := decimal.NewFromString(input.StakeAmount)
	if err != nil {
		return response.BadRequest(c, "stake_amount must be a decimal")
	}

	created, err := h.challengeService.Create(c.Context(), claims.AdminID, input.Title, input.OpponentName, stake)
	if err != nil {
		if errors.Is(err, challenge.ErrInvalidStake) {
			return response.BadRequest(c, "stake amount must be positive")
		}
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, fiber.Map{"challenge": created})
}

func (h *ChallengeHandler) Get(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid challenge id")
	}

	found, err := h.challengeService.Get(c.Context(), claims.AdminID, uint(id))
	if err != nil {
		if errors.Is(err, challenge.ErrChallengeNotFound) {
			return response.NotFound(c, "challenge not found")
		}
		return response.InternalError(c, "failed to get challenge")
	}

	return response.Success(c, fiber.Map{"challenge": found})
}

func (h *ChallengeHandler) List(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	challenges, err := h.challengeService.List(c.Context(), claims.AdminID,
		c.Query("status"), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return response.InternalError(c, "failed to list challenges")
	}

	return response.Success(c, fiber.Map{"challenges": challenges})
}

func (h *ChallengeHandler) Fund(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid challenge id")
	}

	funded, err := h.challengeService.Fund(c.Context(), claims.AdminID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrChallengeNotFound):
			return response.NotFound(c, "challenge not found")
		case errors.Is(err, challenge.ErrInvalidState):
			return response.Conflict(c, err.Error())
		case errors.Is(err, treasury.ErrInsufficientBalance):
			return response.Conflict(c, "insufficient treasury balance")
		case errors.Is(err, treasury.ErrWalletFrozen):
			return response.Conflict(c, "treasury wallet is frozen")
		default:
			return response.InternalError(c, "failed to fund challenge")
		}
	}

	return response.Success(c, fiber.Map{"challenge": funded})
}

func (h *ChallengeHandler) Settle(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid challenge id")
	}

	var input struct {
		Outcome string `json:"outcome"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	settled, err := h.challengeService.Settle(c.Context(), claims.AdminID, uint(id), input.Outcome)
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrChallengeNotFound):
			return response.NotFound(c, "challenge not found")
		case errors.Is(err, challenge.ErrInvalidOutcome):
			return response.BadRequest(c, "outcome must be won or lost")
		case errors.Is(err, challenge.ErrInvalidState):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalError(c, "failed to settle challenge")
		}
	}

	return response.Success(c, fiber.Map{"challenge": settled})
}

func (h *ChallengeHandler) Void(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid challenge id")
	}

	voided, err := h.challengeService.Void(c.Context(), claims.AdminID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrChallengeNotFound):
			return response.NotFound(c, "challenge not found")
		case errors.Is(err, challenge.ErrInvalidState):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalError(c, "failed to void challenge")
		}
	}

	return response.Success(c, fiber.Map{"challenge": voided})
}
