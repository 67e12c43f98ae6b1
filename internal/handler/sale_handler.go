package handler

import (
	"log/slog"

	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SaleHandler struct {
	sales   service.SaleService
	catalog service.CatalogService
	log     *slog.Logger
}

func NewSaleHandler(sales service.SaleService, catalog service.CatalogService, log *slog.Logger) *SaleHandler {
	return &SaleHandler{sales: sales, catalog: catalog, log: log}
}

// GET /api/v1/sales?search=
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.sales.ListSales(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(sales)
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	sale, err := h.sales.GetSale(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(sale)
}

func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	summary, err := h.sales.CreateSale(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(summary)
}

func (h *SaleHandler) UpdateSale(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	summary, err := h.sales.UpdateSale(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(summary)
}

func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.sales.DeleteSale(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted"})
}

// cartRequest carries the client's cart back on every call; the server
// keeps no cart state.
type cartRequest struct {
	Items          []service.CartLine  `json:"items"`
	ItemID         uint                `json:"item_id"`
	Quantity       decimal.Decimal     `json:"quantity"`
	CustomerID     *uint               `json:"customer_id"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
	ReceivedAmount decimal.Decimal     `json:"received_amount"`
	CashAmount     decimal.Decimal     `json:"cash_amount"`
	OnlineAmount   decimal.Decimal     `json:"online_amount"`
}

func cartResponse(cart *service.Cart) fiber.Map {
	return fiber.Map{"items": cart.Lines(), "subtotal": cart.Subtotal()}
}

// POST /api/v1/cart/add
func (h *SaleHandler) AddToCart(c *fiber.Ctx) error {
	var req cartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.ItemID == 0 {
		return badRequest(c, "item_id is required")
	}
	item, err := h.catalog.GetItem(c.UserContext(), req.ItemID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	cart := service.NewCart(req.Items...)
	if err := cart.Add(item, req.Quantity); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(cartResponse(cart))
}

// POST /api/v1/cart/remove
func (h *SaleHandler) RemoveFromCart(c *fiber.Ctx) error {
	var req cartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	cart := service.NewCart(req.Items...)
	cart.Remove(req.ItemID)
	return c.JSON(cartResponse(cart))
}

// POST /api/v1/cart/checkout
func (h *SaleHandler) Checkout(c *fiber.Ctx) error {
	var req cartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	cart := service.NewCart(req.Items...)
	saleReq := cart.SaleRequest(req.CustomerID, req.PaymentMethod, req.ReceivedAmount, req.CashAmount, req.OnlineAmount)
	summary, err := h.sales.CreateSale(c.UserContext(), saleReq, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Debug("cart checked out", "cart", cart.String(), "bill_number", summary.BillNumber)
	return c.Status(fiber.StatusCreated).JSON(summary)
}
