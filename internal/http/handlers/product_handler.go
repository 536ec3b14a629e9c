package handlers

import (
	"strings"

	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/services"
	"github.com/phentivokcs/vintagevibes/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products?gender=&category=&limit=&offset=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	gender := strings.TrimSpace(c.Query("gender"))
	category := strings.TrimSpace(c.Query("category"))
	products, err := h.Catalog.List(gender, category, c.QueryInt("limit", 100), c.QueryInt("offset", 0))
	if err != nil {
		applog.Error(c, "products.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load products"})
	}
	return c.JSON(fiber.Map{"products": products})
}

// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	p, err := h.Catalog.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(p)
}

// GET /api/v1/availability?productId=
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	avail, err := h.Catalog.Availability(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(avail)
}
