package handlers

import (
	"log"

	"stakepot/internal/services/gateway"
	"stakepot/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	gatewayService gateway.Service
}

func NewWebhookHandler(gatewayService gateway.Service) *WebhookHandler {
	return &WebhookHandler{gatewayService: gatewayService}
}

// HandleGatewayWebhook verifies and applies a payment gateway event.
// The signature is computed over the raw body, so the body must reach the
// verifier untouched by any JSON parsing.
func (h *WebhookHandler) HandleGatewayWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return response.BadRequest(c, "missing signature header")
	}

	if err := h.gatewayService.HandleWebhook(c.Context(), payload, signature); err != nil {
		log.Printf("Gateway webhook rejected: %v", err)
		return response.BadRequest(c, "webhook verification failed")
	}

	return c.SendStatus(fiber.StatusOK)
}
