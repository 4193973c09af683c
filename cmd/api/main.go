package main

import (
	"context"
	"log"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/application/service"
	"github.com/SameerAli126/invoicegen-pro/internal/config"
	"github.com/SameerAli126/invoicegen-pro/internal/infrastructure/database"
	"github.com/SameerAli126/invoicegen-pro/internal/infrastructure/repository"
	"github.com/SameerAli126/invoicegen-pro/internal/presentation/http/handler"
	"github.com/SameerAli126/invoicegen-pro/internal/presentation/http/routes"
	"github.com/SameerAli126/invoicegen-pro/pkg/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	invoiceService := service.NewInvoiceService(invoiceRepo, userRepo)
	clientService := service.NewClientService(clientRepo, invoiceRepo)
	dashboardService := service.NewDashboardService(invoiceService, clientService)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Invoice:   handler.NewInvoiceHandler(invoiceService),
		Client:    handler.NewClientHandler(clientService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}

	// Purge expired idempotency records in the background
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := idempotencyRepo.DeleteExpired(context.Background(), time.Now()); err != nil {
				log.Printf("Failed to purge expired idempotency keys: %v", err)
			}
		}
	}()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
