package handlers

import (
	"database/sql"
	"errors"

	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/services"
	"github.com/phentivokcs/vintagevibes/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ReservationHandler struct {
	Res *services.ReservationService
}

type reservationRequest struct {
	ProductID string `json:"productId"`
	SessionID string `json:"sessionId"`
}

func (r *reservationRequest) valid() bool {
	var ok bool
	if r.ProductID, ok = validate.ID(r.ProductID); !ok {
		return false
	}
	if r.SessionID, ok = validate.Session(r.SessionID); !ok {
		return false
	}
	return true
}

// POST /api/v1/reservations
// Places a soft hold for the cart step.
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var req reservationRequest
	if err := c.BodyParser(&req); err != nil || !req.valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid productId or sessionId"})
	}

	out, err := h.Res.Reserve(req.ProductID, req.SessionID, 0)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		applog.Error(c, "reservation.reserve.fail", err, map[string]any{"product": req.ProductID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reservation unavailable"})
	}
	if !out.OK {
		// Contention is an expected outcome, not an error.
		return c.Status(fiber.StatusConflict).JSON(out)
	}
	return c.JSON(out)
}

// DELETE /api/v1/reservations
// Releases a hold (abandoned checkout).
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	var req reservationRequest
	if err := c.BodyParser(&req); err != nil || !req.valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid productId or sessionId"})
	}

	if err := h.Res.Release(req.ProductID, req.SessionID); err != nil {
		applog.Error(c, "reservation.release.fail", err, map[string]any{"product": req.ProductID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "release unavailable"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// POST /api/v1/reservations/sweep
// Manual ops trigger for the sweeper.
func (h *ReservationHandler) Sweep(c *fiber.Ctx) error {
	n, err := h.Res.SweepExpired()
	if err != nil {
		applog.Error(c, "reservation.sweep.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "sweep failed"})
	}
	applog.Audit(c, "reservation.sweep", map[string]any{"released": n})
	return c.JSON(fiber.Map{"released": n})
}
