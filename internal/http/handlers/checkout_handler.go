package handlers

import (
	"errors"

	"github.com/phentivokcs/vintagevibes/internal/domain"
	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/services"
	"github.com/phentivokcs/vintagevibes/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request"})
	}

	if _, ok := validate.Session(in.SessionID); !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "sessionId"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sessionId"})
	}
	if _, ok := validate.Email(in.Customer.Email); !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	if _, ok := validate.Name(in.Customer.Name); !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid name"})
	}
	if in.PaymentMethod != domain.MethodBarion && in.PaymentMethod != domain.MethodCashOnDelivery {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payment method"})
	}
	for _, it := range in.Items {
		if _, ok := validate.ID(it.ProductID); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
		}
	}

	res, err := h.Checkout.Checkout(c.Context(), in)
	if err != nil {
		var conflict *services.ReservationConflictError
		if errors.As(err, &conflict) {
			applog.Info(c, "checkout.conflict", map[string]any{"items": conflict.Failures})
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "some items are no longer available",
				"items": conflict.Failures,
			})
		}
		applog.Error(c, "checkout.fail", err, map[string]any{"session": in.SessionID})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not start checkout, please try again"})
	}

	applog.Audit(c, "checkout.submit", map[string]any{
		"order_id":     res.OrderID,
		"method":       in.PaymentMethod,
		"server_total": res.ServerTotal,
		"client_total": res.ClientTotal,
		"mismatch":     res.ServerTotal != res.ClientTotal,
	})
	return c.JSON(res)
}

// POST /api/v1/checkout/abandon
// Explicit cleanup when the shopper closes the payment step.
func (h *CheckoutHandler) Abandon(c *fiber.Ctx) error {
	var req struct {
		SessionID  string   `json:"sessionId"`
		ProductIDs []string `json:"productIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request"})
	}
	if _, ok := validate.Session(req.SessionID); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sessionId"})
	}
	h.Checkout.Abandon(req.SessionID, req.ProductIDs)
	return c.JSON(fiber.Map{"success": true})
}
