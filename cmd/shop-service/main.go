package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/shopcore/shopcore/internal/cache"
	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/consumer"
	"github.com/shopcore/shopcore/internal/db"
	"github.com/shopcore/shopcore/internal/discovery"
	"github.com/shopcore/shopcore/internal/handlers"
	"github.com/shopcore/shopcore/internal/inventory"
	"github.com/shopcore/shopcore/internal/messaging"
	"github.com/shopcore/shopcore/internal/orders"
	"github.com/shopcore/shopcore/internal/publisher"
)

const (
	serviceName = "shop-service"
	serviceID   = "shop-service-1"
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Connect to RabbitMQ
	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	// Connect to Consul and register
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}

	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: cfg.HTTPPort,
		Tags: []string{"api", "orders", "inventory"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	// Deregister on shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		consul.Deregister(serviceID)
		os.Exit(0)
	}()

	// Repositories
	stockRepo := db.NewStockRepository(database)
	productRepo := db.NewProductRepository(database)
	cachedProducts := db.NewCachedProductRepository(productRepo, redisCache)
	orderRepo := db.NewOrderRepository(database)
	cartRepo := db.NewCartRepository(database)

	// Core components, constructed once and shared by every request
	ledger := inventory.NewLedger(stockRepo)
	orchestrator := orders.NewOrchestrator(ledger, productRepo, orderRepo, cartRepo)
	statusMachine := orders.NewStatusMachine(ledger, orderRepo)

	// Event publisher
	orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	// Low-stock alert consumer
	go startStockAlerts(rabbitMQ, ledger)

	// Handlers
	orderHandler := handlers.NewOrderHandler(orchestrator, statusMachine, orderRepo, cartRepo, orderPublisher)
	productHandler := handlers.NewProductHandler(cachedProducts)
	stockHandler := handlers.NewStockHandler(ledger)

	// Setup router
	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)

	router.GET("/products", productHandler.ListProducts)
	router.GET("/products/:id", productHandler.GetProduct)
	router.POST("/products", productHandler.CreateProduct)
	router.POST("/products/:id/withdraw", productHandler.WithdrawProduct)

	router.GET("/stock/low", stockHandler.ListLowStock)
	router.GET("/stock/:id", stockHandler.GetStock)
	router.POST("/stock", stockHandler.CreateStock)
	router.POST("/stock/:id/adjust", stockHandler.AdjustStock)

	router.GET("/orders", orderHandler.ListOrders)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.POST("/orders", orderHandler.CreateOrder)
	router.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)
	router.POST("/orders/:id/cancel", orderHandler.CancelOrder)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, cfg.HTTPPort)
	router.Run(fmt.Sprintf(":%d", cfg.HTTPPort))
}

func startStockAlerts(mq *messaging.RabbitMQ, ledger *inventory.Ledger) {
	if err := mq.DeclareQueue(publisher.OrderCreatedQueue); err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}

	messages, err := mq.Consume(publisher.OrderCreatedQueue)
	if err != nil {
		log.Fatalf("Failed to consume messages: %v", err)
	}

	alerts := consumer.NewStockAlertConsumer(ledger)
	alerts.ProcessOrderCreated(context.Background(), messages)
}
