package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"balance-topup/internal/auth"
	"balance-topup/internal/config"
	"balance-topup/internal/database"
	"balance-topup/internal/handlers"
	"balance-topup/internal/jobs"
	"balance-topup/internal/middleware"
	"balance-topup/internal/repository"
	"balance-topup/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Redis is optional; without it settings are read straight from the database
	rdb, err := database.ConnectRedis(appCtx, cfg)
	if err != nil {
		log.Printf("Warning: %v (continuing without cache)", err)
		rdb = nil
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	receipts, err := services.NewLocalReceiptStore(cfg.TopUp.UploadDir)
	if err != nil {
		log.Fatalf("Failed to prepare receipt storage: %v", err)
	}

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.Telegram.BotToken != "" {
		tgNotifier, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminIDs)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram bot: %v", err)
		}
		notifier = tgNotifier
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, notifications disabled")
	}

	// Initialize services
	settingsService := services.NewSettingsService(repo, rdb)
	if _, err := settingsService.SeedDefaults(appCtx); err != nil {
		log.Printf("Warning: failed to seed payment settings: %v", err)
	}
	referralService := services.NewReferralService(repo, cfg.Telegram.BotUsername, cfg.TopUp.CommissionRate)
	authService := services.NewAuthService(repo, referralService)
	userService := services.NewUserService(repo)
	adminService := services.NewAdminService(repo, cfg.Telegram.AdminIDs)
	topUpService := services.NewTopUpService(repo, settingsService, receipts, notifier, cfg.TopUp)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService, cfg.Telegram.BotToken)
	balanceHandler := handlers.NewBalanceHandler(topUpService, referralService, adminService, cfg.TopUp.MaxReceiptSize)
	referralHandler := handlers.NewReferralHandler(referralService)
	adminHandler := handlers.NewAdminHandler(adminService, topUpService)

	// Start review reminder job
	reminder := jobs.NewReviewReminder(topUpService, rdb, cfg.TopUp.ReminderAfter, cfg.TopUp.ReminderEvery)
	go reminder.Start()

	uploadLimiter := middleware.NewRateLimiter(6*time.Second, 5)
	go uploadLimiter.Cleanup(appCtx)

	// Set up Gin router
	router := gin.Default()
	router.MaxMultipartMemory = cfg.TopUp.MaxReceiptSize

	// CORS middleware
	allowedOrigins := []string{
		"https://web.telegram.org",
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if sqlDB, err := repo.DB().DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	router.POST("/auth/telegram", authHandler.TelegramLogin)

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		balance := api.Group("/balance")
		{
			balance.POST("/create", balanceHandler.CreateTopUp)
			balance.POST("/upload-receipt/:order_id", uploadLimiter.Middleware(), balanceHandler.UploadReceipt)
			balance.POST("/mark-paid/:order_id", balanceHandler.MarkPaid)
			balance.GET("/requests", balanceHandler.ListRequests)
			balance.GET("/methods", balanceHandler.PaymentMethods)
			balance.GET("/receipt/:order_id", balanceHandler.GetReceipt)
			balance.GET("/statement", balanceHandler.GetStatement)
		}

		referral := api.Group("/referral")
		{
			referral.GET("/stats", referralHandler.GetReferralStats)
			referral.GET("/code", referralHandler.GetReferralCode)
			referral.POST("/apply", referralHandler.ApplyReferralCode)
		}
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.POST("/process/:order_id", adminHandler.ProcessTopUp)
		admin.GET("/pending", adminHandler.GetPendingRequests)
		admin.GET("/requests/:order_id", adminHandler.GetRequest)
		admin.GET("/logs", adminHandler.GetAdminLogs)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Telegram auth: POST http://localhost:%s/auth/telegram", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	reminder.Stop()
	stopApp()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if rdb != nil {
		_ = rdb.Close()
	}

	log.Println("Server exited")
}
