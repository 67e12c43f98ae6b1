package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-ledger/internal/config"
	"go-pos-ledger/internal/handler"
	"go-pos-ledger/internal/logging"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/service"
	"go-pos-ledger/internal/ws"
	"go-pos-ledger/pkg/database"
	"go-pos-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		logging.New("text", "error").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogFormat, cfg.LogLevel)

	// 2. Setup database
	db, err := database.Open(cfg.DBDriver, cfg.DSN(), logging.NewGormLogger(log, cfg.LogLevel == "debug"))
	if err != nil {
		log.Error("failed to connect to database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	// Auto migrate; production deployments should run migrations separately.
	if err := model.Migrate(db); err != nil {
		log.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	// 3. Setup WebSocket hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 4. Dependency injection
	tx := repository.NewTransactor(db)
	itemRepo := repository.NewItemRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	txnRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	clock := service.Clock(time.Now)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	authService := service.NewAuthService(userRepo, tokens, wsHub, clock, log)
	catalog := service.NewCatalogService(tx, itemRepo, supplierRepo, wsHub, log)
	services := handler.Services{
		Auth:      authService,
		Catalog:   catalog,
		Sales:     service.NewSaleService(tx, saleRepo, customerRepo, catalog, service.NewBillNumberer(saleRepo), wsHub, clock, log),
		Customers: service.NewCustomerService(tx, customerRepo, paymentRepo, saleRepo, wsHub, clock, log),
		Suppliers: service.NewSupplierService(tx, supplierRepo, txnRepo, itemRepo, wsHub, clock, log),
		Reports:   service.NewReportService(saleRepo, customerRepo, itemRepo, decimal.NewFromFloat(cfg.LowStockThreshold), clock, log),
	}

	// 5. Seed admin user
	if err := authService.SeedAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Warn("failed to seed admin user", "error", err)
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Ledger v1.0",
	})

	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	handler.Register(app, services, handler.RouteOptions{
		LoginRateLimit: cfg.LoginRateLimit,
		Hub:            wsHub,
	}, log)

	// 7. Graceful shutdown
	go func() {
		log.Info("http server starting", "port", cfg.HTTPPort, "driver", cfg.DBDriver, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server", "ws_clients", wsHub.ClientCount())
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("server exited")
}
