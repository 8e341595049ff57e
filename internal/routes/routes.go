// Package routes defines the API routing configuration.
package routes

import (
	"stakepot/internal/config"
	"stakepot/internal/handlers"
	"stakepot/internal/middleware"
	"stakepot/internal/models"
	"stakepot/internal/repositories"
	"stakepot/internal/services/auth"
	"stakepot/internal/services/challenge"
	"stakepot/internal/services/gateway"
	"stakepot/internal/services/treasury"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes wires repositories, services and handlers onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Repositories
	treasuryRepo := repositories.NewTreasuryRepository(db)
	challengeRepo := repositories.NewChallengeRepository(db)
	adminRepo := repositories.NewAdminRepository(db, repositories.CacheService)

	// Services
	authService := auth.NewService(adminRepo)
	treasuryService := treasury.NewService(
		treasuryRepo,
		repositories.CacheService,
		treasury.Config{Currency: config.GetEnv("TREASURY_CURRENCY", "USD")},
		nil,
	)
	gatewayService := gateway.NewService(treasuryService, gateway.Config{
		SecretKey:     config.GetEnv("GATEWAY_SECRET_KEY", ""),
		WebhookSecret: config.GetEnv("GATEWAY_WEBHOOK_SECRET", ""),
	})
	challengeService := challenge.NewService(challengeRepo, treasuryService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	treasuryHandler := handlers.NewTreasuryHandler(treasuryService, gatewayService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	webhookHandler := handlers.NewWebhookHandler(gatewayService)

	api := app.Group("/api")

	// Public endpoints
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.RefreshToken)
	api.Post("/webhooks/gateway", webhookHandler.HandleGatewayWebhook)
	app.Get("/health", handlers.HealthCheck)

	// Protected endpoints
	authMiddleware := middleware.NewAuthMiddleware(authService)
	protected := api.Use(authMiddleware.Handler)
	protected.Post("/logout", authHandler.Logout)

	treasuryGroup := protected.Group("/treasury", middleware.RequireAdmin)
	treasuryGroup.Get("/", middleware.HasPermission(models.PermissionTreasuryRead), treasuryHandler.GetSummary)
	treasuryGroup.Post("/deposit", middleware.HasPermission(models.PermissionTreasuryWrite), treasuryHandler.InitiateDeposit)
	treasuryGroup.Get("/transactions", middleware.HasPermission(models.PermissionTreasuryRead), treasuryHandler.GetTransactions)
	treasuryGroup.Get("/stats", middleware.HasPermission(models.PermissionTreasuryRead), treasuryHandler.GetStats)
	treasuryGroup.Post("/freeze", middleware.HasPermission(models.PermissionWriteAdmin), treasuryHandler.FreezeWallet)
	treasuryGroup.Post("/unfreeze", middleware.HasPermission(models.PermissionWriteAdmin), treasuryHandler.UnfreezeWallet)

	challengeGroup := protected.Group("/challenges", middleware.RequireAdmin)
	challengeGroup.Post("/", middleware.HasPermission(models.PermissionChallengeWrite), challengeHandler.Create)
	challengeGroup.Get("/", middleware.HasPermission(models.PermissionChallengeRead), challengeHandler.List)
	challengeGroup.Get("/:id", middleware.HasPermission(models.PermissionChallengeRead), challengeHandler.Get)
	challengeGroup.Post("/:id/fund", middleware.HasPermission(models.PermissionChallengeWrite), challengeHandler.Fund)
	challengeGroup.Post("/:id/settle", middleware.HasPermission(models.PermissionChallengeWrite), challengeHandler.Settle)
	challengeGroup.Post("/:id/void", middleware.HasPermission(models.PermissionChallengeWrite), challengeHandler.Void)
}
