package main

import (
	"fmt"
	"net/http"
	"time"

	"atmbank/config"
	"atmbank/controllers"
	"atmbank/database"
	"atmbank/middleware"
	"atmbank/services"
	"atmbank/utils"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		utils.Log.Fatalf("failed to load configuration: %v", err)
	}

	// Connect to the database and run migrations
	db, err := database.NewDatabase(cfg)
	if err != nil {
		utils.Log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Token service with its revocation-cleanup loop
	tokenService, err := services.NewTokenService(db.DB, cfg)
	if err != nil {
		utils.Log.Fatalf("failed to initialize token service: %v", err)
	}
	tokenService.StartCleanup(time.Hour)

	emailService := services.NewEmailService(cfg)

	// Controllers
	userController := controllers.NewUserController(db, cfg)
	authController := controllers.NewAuthController(db, cfg, tokenService)
	accountController := controllers.NewAccountController(db, emailService)
	receiptController := controllers.NewReceiptController(db)
	adminController := controllers.NewAdminController(db)

	// Router
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimit)

	// Public routes
	router.HandleFunc("/api/users/register", userController.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authController.Login).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/refresh", authController.Refresh).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/logout", authController.Logout).Methods("POST", "OPTIONS")

	// Protected routes
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware(tokenService))

	protected.HandleFunc("/auth/validate", authController.Validate).Methods("GET")
	protected.HandleFunc("/auth/change-pin", authController.ChangePIN).Methods("POST")

	protected.HandleFunc("/account/balance", accountController.Balance).Methods("GET")
	protected.HandleFunc("/transactions/withdraw", accountController.Withdraw).Methods("POST")
	protected.HandleFunc("/transactions/deposit", accountController.Deposit).Methods("POST")
	protected.HandleFunc("/transactions/history", accountController.History).Methods("GET")

	protected.HandleFunc("/receipts/latest/pdf", receiptController.GetLatestPDF).Methods("GET")
	protected.HandleFunc("/receipts/{id:[0-9]+}/pdf", receiptController.GetPDF).Methods("GET")

	// Admin routes
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/users", adminController.ListUsers).Methods("GET")
	admin.HandleFunc("/accounts", adminController.ListAccounts).Methods("GET")
	admin.HandleFunc("/transactions", adminController.ListTransactions).Methods("GET")
	admin.HandleFunc("/receipts", adminController.ListReceipts).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	utils.LogInfo("server listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		utils.Log.Fatalf("server failed: %v", err)
	}
}
