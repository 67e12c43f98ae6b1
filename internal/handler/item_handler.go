package handler

import (
	"log/slog"

	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	catalog service.CatalogService
	log     *slog.Logger
}

func NewItemHandler(catalog service.CatalogService, log *slog.Logger) *ItemHandler {
	return &ItemHandler{catalog: catalog, log: log}
}

// GET /api/v1/items?search=
func (h *ItemHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.catalog.ListItems(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(items)
}

// GET /api/v1/items/available
func (h *ItemHandler) GetAvailableItems(c *fiber.Ctx) error {
	items, err := h.catalog.ListAvailableItems(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(items)
}

func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	item, err := h.catalog.GetItem(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(item)
}

func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var item model.Item
	if err := c.BodyParser(&item); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	created, err := h.catalog.CreateItem(c.UserContext(), &item, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item created", "data": created})
}

func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var item model.Item
	if err := c.BodyParser(&item); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.catalog.UpdateItem(c.UserContext(), id, &item, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Item updated", "data": updated})
}

func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.catalog.DeleteItem(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Item deleted"})
}
