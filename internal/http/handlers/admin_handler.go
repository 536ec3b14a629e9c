package handlers

import (
	"github.com/phentivokcs/vintagevibes/internal/domain"
	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
	"github.com/phentivokcs/vintagevibes/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Orders  *repos.OrderRepo
	Fulfill *services.FulfillmentService
}

// GET /admin/orders
func (h *AdminHandler) OrdersList(c *fiber.Ctx) error {
	ords, err := h.Orders.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load orders"})
	}
	return c.JSON(fiber.Map{"orders": ords})
}

// GET /admin/orders/:id
func (h *AdminHandler) OrderDetail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	order, err := h.Orders.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	items, err := h.Orders.Items(id)
	if err != nil {
		applog.Error(c, "admin.orders.items.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load order"})
	}
	return c.JSON(fiber.Map{"order": order, "items": items})
}

var adminStatuses = map[string]bool{
	domain.OrderProcessing: true,
	domain.OrderShipped:    true,
	domain.OrderDelivered:  true,
	domain.OrderCancelled:  true,
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || !adminStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	order, err := h.Orders.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err := h.Orders.UpdateStatus(id, req.Status); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not update status"})
	}
	h.Fulfill.NotifyStatusChange(order, req.Status)

	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": req.Status})
	return c.JSON(fiber.Map{"ok": true})
}

// POST /admin/orders/:id/shipment
// Creates the Packeta label. Synchronous: the admin is waiting for the
// label URL.
func (h *AdminHandler) CreateShipment(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	ship, err := h.Fulfill.CreateShipment(c.Context(), id)
	if err != nil {
		applog.Error(c, "admin.shipment.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not create shipment"})
	}
	applog.Audit(c, "admin.shipment.create", map[string]any{"order_id": id, "packet_id": ship.PacketID})
	return c.JSON(fiber.Map{
		"packetId":    ship.PacketID,
		"barcode":     ship.Barcode,
		"trackingUrl": ship.TrackingURL,
		"labelUrl":    ship.LabelURL,
	})
}
