package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"bnpl_backend_echo/internal/handlers"
	appmiddleware "bnpl_backend_echo/internal/middleware"
	"bnpl_backend_echo/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional: without it the plan-type cache and the batch
	// lock fall back to direct DB reads / single-instance semantics.
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer cache.Close()
	} else {
		log.Println("Warning: REDIS_URL not set, caching and batch locking disabled")
	}

	loc := services.BusinessLocation()

	// Wire up services
	midtransClient := services.NewMidtransService()
	planTypes := services.NewPlanTypeService(db, cache)
	accrual := services.NewAccrualService(loc)
	carry := services.NewCarryForwardService(loc)
	snapshots := services.NewSnapshotService(db, loc)
	lifecycle := services.NewLifecycleService(db, loc, planTypes)
	allocation := services.NewAllocationService(db, loc, planTypes, snapshots, lifecycle)
	batch := services.NewBatchService(db, loc, cache, planTypes, accrual, carry, snapshots, lifecycle)
	settlementPayments := services.NewSettlementPaymentService(db, midtransClient, allocation)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.HTTPErrorHandler = appmiddleware.CustomErrorHandler
	e.Validator = handlers.NewRequestValidator()

	// Initialize handlers
	planHandler := handlers.NewPlanHandler(db, lifecycle)
	paymentHandler := handlers.NewPaymentHandler(allocation, settlementPayments, snapshots)
	settlementHandler := handlers.NewSettlementHandler(snapshots, batch)

	api := e.Group("/api")

	// Plan lifecycle
	api.POST("/plans", planHandler.CreatePlan)
	api.POST("/plans/:id/activate", planHandler.ActivatePlan)
	api.GET("/plans/:id", planHandler.GetPlan)
	api.POST("/plans/:id/cancel", planHandler.CancelPlan)
	api.POST("/plans/:id/refund", planHandler.RefundPlan)

	// Payments
	api.POST("/installments/:id/payments", paymentHandler.ApplyPayment)
	api.POST("/settlements/:reference/pay", paymentHandler.InitiateSettlementPayment)
	api.POST("/payments/notification", paymentHandler.PaymentNotification)

	// Settlement quotes and batch accrual
	api.POST("/plans/:id/settlement", settlementHandler.GenerateSettlement)
	api.GET("/plans/:id/settlement", settlementHandler.GetLatestSettlement)
	api.POST("/batch/accrual", settlementHandler.RunBatchAccrual)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
