package handler

import (
	"log/slog"

	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SupplierHandler struct {
	suppliers service.SupplierService
	log       *slog.Logger
}

func NewSupplierHandler(suppliers service.SupplierService, log *slog.Logger) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, log: log}
}

type supplierTransactionBody struct {
	Date        string                `json:"date"`
	BillNo      string                `json:"bill_no"`
	Description string                `json:"description"`
	Amount      decimal.Decimal       `json:"amount"`
	Type        model.TransactionType `json:"transaction_type"`
}

func (b supplierTransactionBody) request() (service.SupplierTransactionRequest, error) {
	date, err := parseDate("date", b.Date)
	if err != nil {
		return service.SupplierTransactionRequest{}, err
	}
	return service.SupplierTransactionRequest{
		Date:        date,
		BillNo:      b.BillNo,
		Description: b.Description,
		Amount:      b.Amount,
		Type:        b.Type,
	}, nil
}

func (h *SupplierHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.suppliers.ListSuppliers(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(suppliers)
}

func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	detail, err := h.suppliers.GetSupplier(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(detail)
}

func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	var supplier model.Supplier
	if err := c.BodyParser(&supplier); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	created, err := h.suppliers.CreateSupplier(c.UserContext(), &supplier, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Supplier created", "data": created})
}

func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var supplier model.Supplier
	if err := c.BodyParser(&supplier); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.suppliers.UpdateSupplier(c.UserContext(), id, &supplier, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier updated", "data": updated})
}

func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.suppliers.DeleteSupplier(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier deleted"})
}

// POST /api/v1/suppliers/:id/transactions
func (h *SupplierHandler) AddTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var body supplierTransactionBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req, err := body.request()
	if err != nil {
		return respondError(c, h.log, err)
	}
	txn, err := h.suppliers.AddTransaction(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// PUT /api/v1/supplier-transactions/:id
func (h *SupplierHandler) EditTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var body supplierTransactionBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req, err := body.request()
	if err != nil {
		return respondError(c, h.log, err)
	}
	txn, err := h.suppliers.EditTransaction(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(txn)
}

// DELETE /api/v1/supplier-transactions/:id
func (h *SupplierHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	txn, err := h.suppliers.DeleteTransaction(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction deleted", "supplier_id": txn.SupplierID})
}

func (h *SupplierHandler) GetStatement(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	st, err := h.suppliers.GetSupplierStatement(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(st)
}

func (h *SupplierHandler) VerifyBalance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	check, err := h.suppliers.VerifyBalance(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(check)
}

// POST /api/v1/suppliers/:id/write-off
func (h *SupplierHandler) WriteOffBalance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.suppliers.WriteOffBalance(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier ledger cleared. All transaction records removed."})
}
