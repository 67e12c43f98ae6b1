package handler

import (
	"log/slog"

	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CustomerHandler struct {
	customers service.CustomerService
	log       *slog.Logger
}

func NewCustomerHandler(customers service.CustomerService, log *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, log: log}
}

type paymentBody struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Description string          `json:"description"`
}

func (b paymentBody) request() (service.PaymentRequest, error) {
	date, err := parseDate("payment_date", b.PaymentDate)
	if err != nil {
		return service.PaymentRequest{}, err
	}
	return service.PaymentRequest{Amount: b.Amount, PaymentDate: date, Description: b.Description}, nil
}

// GET /api/v1/customers?search=
func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	list, err := h.customers.ListCustomers(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// GET /api/v1/customers/:id returns the customer with its ledger.
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	ledger, err := h.customers.GetCustomerLedger(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(ledger)
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var customer model.Customer
	if err := c.BodyParser(&customer); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	created, err := h.customers.CreateCustomer(c.UserContext(), &customer, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Customer created", "data": created})
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var customer model.Customer
	if err := c.BodyParser(&customer); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.customers.UpdateCustomer(c.UserContext(), id, &customer, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Customer updated", "data": updated})
}

func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.customers.DeleteCustomer(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Customer deleted"})
}

// POST /api/v1/customers/:id/payments
func (h *CustomerHandler) AddPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var body paymentBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req, err := body.request()
	if err != nil {
		return respondError(c, h.log, err)
	}
	payment, err := h.customers.AddPayment(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// PUT /api/v1/customers/:id/payments/:paymentId
func (h *CustomerHandler) EditPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	paymentID, err := paramID(c, "paymentId")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var body paymentBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req, err := body.request()
	if err != nil {
		return respondError(c, h.log, err)
	}
	payment, err := h.customers.EditPayment(c.UserContext(), id, paymentID, req, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(payment)
}

// DELETE /api/v1/payments/:id
func (h *CustomerHandler) DeletePayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	payment, err := h.customers.DeletePayment(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Payment deleted", "customer_id": payment.CustomerID})
}

// POST /api/v1/customers/:id/write-off
func (h *CustomerHandler) WriteOffBalance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.customers.WriteOffBalance(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Customer ledger cleared"})
}
