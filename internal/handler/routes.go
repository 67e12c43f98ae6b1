package handler

import (
	"log/slog"
	"time"

	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/service"
	"go-pos-ledger/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth      service.AuthService
	Catalog   service.CatalogService
	Sales     service.SaleService
	Customers service.CustomerService
	Suppliers service.SupplierService
	Reports   service.ReportService
}

type RouteOptions struct {
	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute. Zero disables the limiter.
	LoginRateLimit int
	// Hub, when set, is served on /ws.
	Hub *ws.Hub
}

func Register(app *fiber.App, svc Services, opts RouteOptions, log *slog.Logger) {
	authHandler := NewAuthHandler(svc.Auth, log)
	itemHandler := NewItemHandler(svc.Catalog, log)
	saleHandler := NewSaleHandler(svc.Sales, svc.Catalog, log)
	customerHandler := NewCustomerHandler(svc.Customers, log)
	supplierHandler := NewSupplierHandler(svc.Suppliers, log)
	reportHandler := NewReportHandler(svc.Reports, log)

	requireAuth := middleware.RequireAuth(svc.Auth)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	if opts.LoginRateLimit > 0 {
		auth.Post("/login", limiter.New(limiter.Config{
			Max:        opts.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts"})
			},
		}), authHandler.Login)
	} else {
		auth.Post("/login", authHandler.Login)
	}
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/dashboard", reportHandler.GetDashboard)
	protected.Get("/reports/sales", reportHandler.GetSalesReport)

	// Catalog
	protected.Get("/items", itemHandler.GetItems)
	protected.Get("/items/available", itemHandler.GetAvailableItems)
	protected.Get("/items/:id", itemHandler.GetItem)
	protected.Post("/items", adminOnly, itemHandler.CreateItem)
	protected.Put("/items/:id", adminOnly, itemHandler.UpdateItem)
	protected.Delete("/items/:id", adminOnly, itemHandler.DeleteItem)

	// Sales and cart
	protected.Get("/sales", saleHandler.GetSales)
	protected.Get("/sales/:id", saleHandler.GetSale)
	protected.Post("/sales", saleHandler.CreateSale)
	protected.Put("/sales/:id", saleHandler.UpdateSale)
	protected.Delete("/sales/:id", saleHandler.DeleteSale)
	protected.Post("/cart/add", saleHandler.AddToCart)
	protected.Post("/cart/remove", saleHandler.RemoveFromCart)
	protected.Post("/cart/checkout", saleHandler.Checkout)

	// Customers
	protected.Get("/customers", customerHandler.GetCustomers)
	protected.Post("/customers", customerHandler.CreateCustomer)
	protected.Get("/customers/:id", customerHandler.GetCustomer)
	protected.Put("/customers/:id", customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", adminOnly, customerHandler.DeleteCustomer)
	protected.Post("/customers/:id/payments", customerHandler.AddPayment)
	protected.Put("/customers/:id/payments/:paymentId", customerHandler.EditPayment)
	protected.Delete("/payments/:id", customerHandler.DeletePayment)
	protected.Post("/customers/:id/write-off", adminOnly, customerHandler.WriteOffBalance)

	// Suppliers
	protected.Get("/suppliers", supplierHandler.GetSuppliers)
	protected.Post("/suppliers", adminOnly, supplierHandler.CreateSupplier)
	protected.Get("/suppliers/:id", supplierHandler.GetSupplier)
	protected.Put("/suppliers/:id", adminOnly, supplierHandler.UpdateSupplier)
	protected.Delete("/suppliers/:id", adminOnly, supplierHandler.DeleteSupplier)
	protected.Get("/suppliers/:id/statement", supplierHandler.GetStatement)
	protected.Get("/suppliers/:id/verify", supplierHandler.VerifyBalance)
	protected.Post("/suppliers/:id/transactions", adminOnly, supplierHandler.AddTransaction)
	protected.Put("/supplier-transactions/:id", adminOnly, supplierHandler.EditTransaction)
	protected.Delete("/supplier-transactions/:id", adminOnly, supplierHandler.DeleteTransaction)
	protected.Post("/suppliers/:id/write-off", adminOnly, supplierHandler.WriteOffBalance)

	if opts.Hub != nil {
		registerWebSocket(app, opts.Hub)
	}
}

func registerWebSocket(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
