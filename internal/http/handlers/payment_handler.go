package handlers

import (
	"net/url"

	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/services"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	Settle      *services.SettlementService
	FrontendURL string
}

// GET /payment/callback?paymentId=...
// The gateway calls back with a payment id and nothing else trustworthy;
// settlement re-queries the gateway for the authoritative state, then
// the shopper's browser is bounced to the result page.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	paymentID := c.Query("paymentId")
	if paymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing paymentId"})
	}

	res, err := h.Settle.Settle(c.Context(), paymentID)
	if err != nil {
		// Leave everything for the gateway's retry; still move the
		// shopper somewhere sensible.
		applog.Error(c, "payment.callback.fail", err, map[string]any{"payment_id": paymentID})
		return h.redirect(c, h.FrontendURL+"/payment-result?status=error&message="+url.QueryEscape("A fizetés feldolgozása sikertelen"))
	}

	applog.Audit(c, "payment.settled", map[string]any{
		"order_id":       res.OrderID,
		"payment_status": res.PaymentStatus,
	})
	return h.redirect(c, h.FrontendURL+"/payment-result?orderId="+url.QueryEscape(res.OrderID)+"&status="+url.QueryEscape(res.PaymentStatus))
}

// redirect serves a tiny interstitial page; the gateway sometimes lands
// the shopper here with POST, which plain 302s handle poorly.
func (h *PaymentHandler) redirect(c *fiber.Ctx, target string) error {
	return c.Render("payment_redirect", fiber.Map{"RedirectURL": target})
}
