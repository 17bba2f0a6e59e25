package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"atmbank/config"
	"atmbank/database"
	"atmbank/middleware"
	"atmbank/models"
	"atmbank/services"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	router *mux.Router
	db     *database.Database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(gormDB))

	db := &database.Database{DB: gormDB}

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.JWT.PrivateKeyPath = filepath.Join(dir, "jwtRS256.key")
	cfg.JWT.PublicKeyPath = filepath.Join(dir, "jwtRS256.key.pub")
	cfg.JWT.AccessExpiresIn = 15
	cfg.JWT.RefreshExpiresIn = 7
	cfg.DailyWithdrawLimit = decimal.RequireFromString("25000.00")

	tokenService, err := services.NewTokenService(gormDB, cfg)
	require.NoError(t, err)
	emailService := services.NewEmailService(cfg)

	userController := NewUserController(db, cfg)
	authController := NewAuthController(db, cfg, tokenService)
	accountController := NewAccountController(db, emailService)
	receiptController := NewReceiptController(db)
	adminController := NewAdminController(db)

	router := mux.NewRouter()
	router.HandleFunc("/api/users/register", userController.Register).Methods("POST")
	router.HandleFunc("/api/auth/login", authController.Login).Methods("POST")
	router.HandleFunc("/api/auth/refresh", authController.Refresh).Methods("POST")
	router.HandleFunc("/api/auth/logout", authController.Logout).Methods("POST")

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

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/users", adminController.ListUsers).Methods("GET")
	admin.HandleFunc("/accounts", adminController.ListAccounts).Methods("GET")
	admin.HandleFunc("/transactions", adminController.ListTransactions).Methods("GET")
	admin.HandleFunc("/receipts", adminController.ListReceipts).Methods("GET")

	return &testEnv{router: router, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) register(t *testing.T) {
	t.Helper()
	rr := e.do(t, "POST", "/api/users/register", "", map[string]string{
		"name":           "Priya Sharma",
		"email":          "priya@example.com",
		"phone":          "9876543210",
		"account_number": "1234567890",
		"pin":            "4321",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func (e *testEnv) login(t *testing.T) (access, refresh string) {
	t.Helper()
	rr := e.do(t, "POST", "/api/auth/login", "", map[string]string{
		"account_number": "1234567890",
		"pin":            "4321",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	return resp.Token, resp.RefreshToken
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/users/register", "", map[string]string{
		"name":           "P",
		"email":          "not-an-email",
		"phone":          "123",
		"account_number": "12",
		"pin":            "abc",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	rr := env.do(t, "POST", "/api/users/register", "", map[string]string{
		"name":           "Someone Else",
		"email":          "priya@example.com",
		"phone":          "9876543211",
		"account_number": "1234567899",
		"pin":            "1234",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLoginWrongPIN(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	rr := env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"account_number": "1234567890",
		"pin":            "9999",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/account/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, "GET", "/api/account/balance", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDepositWithdrawBalanceFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	access, _ := env.login(t)

	rr := env.do(t, "POST", "/api/transactions/deposit", access, map[string]interface{}{
		"amount": 1000.00,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var dep struct {
		NewBalance string `json:"new_balance"`
		Receipt    struct {
			ReceiptNumber string `json:"receipt_number"`
		} `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dep))
	assert.Equal(t, "1000.00", dep.NewBalance)
	assert.Contains(t, dep.Receipt.ReceiptNumber, "RCP")

	rr = env.do(t, "POST", "/api/transactions/withdraw", access, map[string]interface{}{
		"amount": 250.00,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(t, "GET", "/api/account/balance", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var bal struct {
		Balance        string `json:"balance"`
		DailyWithdrawn string `json:"daily_withdrawn"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bal))
	assert.Equal(t, "750.00", bal.Balance)
	assert.Equal(t, "250.00", bal.DailyWithdrawn)

	rr = env.do(t, "GET", "/api/transactions/history?limit=5", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history []transactionJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "withdrawal", history[0].Type)
	assert.Equal(t, "deposit", history[1].Type)
}

func TestWithdrawErrorStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	access, _ := env.login(t)

	// Invalid amount
	rr := env.do(t, "POST", "/api/transactions/withdraw", access, map[string]interface{}{
		"amount": -5.00,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Insufficient balance (account starts at zero)
	rr = env.do(t, "POST", "/api/transactions/withdraw", access, map[string]interface{}{
		"amount": 100.00,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Daily limit exceeded
	rr = env.do(t, "POST", "/api/transactions/deposit", access, map[string]interface{}{
		"amount": 50000.00,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "POST", "/api/transactions/withdraw", access, map[string]interface{}{
		"amount": 30000.00,
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListParamsCapsLimit(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/admin/users?limit=10000000&offset=5", nil)
	limit, offset := listParams(req)
	assert.Equal(t, maxListLimit, limit)
	assert.Equal(t, 5, offset)

	req = httptest.NewRequest("GET", "/api/admin/users", nil)
	limit, offset = listParams(req)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}

func TestHistoryCapsLimit(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	access, _ := env.login(t)

	rr := env.do(t, "POST", "/api/transactions/deposit", access, map[string]interface{}{
		"amount": 100.00,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "GET", "/api/transactions/history?limit=10000000", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history []transactionJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Len(t, history, 1)
}

func TestMutationStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, mutationStatus(services.ErrInvalidAmount))
	assert.Equal(t, http.StatusBadRequest, mutationStatus(services.ErrInsufficientBalance))
	assert.Equal(t, http.StatusForbidden, mutationStatus(services.ErrDailyLimitExceeded))
	assert.Equal(t, http.StatusConflict, mutationStatus(services.ErrConcurrentUpdate))
	assert.Equal(t, http.StatusInternalServerError, mutationStatus(fmt.Errorf("database exploded")))
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	_, refresh := env.login(t)

	rr := env.do(t, "POST", "/api/auth/refresh", refresh, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Logout revokes the refresh token; reusing it must fail.
	rr = env.do(t, "POST", "/api/auth/logout", refresh, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "POST", "/api/auth/refresh", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestChangePINAndRelogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	access, _ := env.login(t)

	rr := env.do(t, "POST", "/api/auth/change-pin", access, map[string]string{
		"current_pin": "0000",
		"new_pin":     "5678",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, "POST", "/api/auth/change-pin", access, map[string]string{
		"current_pin": "4321",
		"new_pin":     "5678",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"account_number": "1234567890",
		"pin":            "5678",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReceiptPDFEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	access, _ := env.login(t)

	rr := env.do(t, "GET", "/api/receipts/latest/pdf", access, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, "POST", "/api/transactions/deposit", access, map[string]interface{}{
		"amount": 500.00,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "GET", "/api/receipts/latest/pdf", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", rr.Body.String()[:4])

	rr = env.do(t, "GET", "/api/receipts/1/pdf", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))

	rr = env.do(t, "GET", "/api/receipts/999/pdf", access, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	access, _ := env.login(t)

	rr := env.do(t, "GET", "/api/admin/users", access, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Promote the user and log in again to pick up the admin role claim.
	require.NoError(t, env.db.DB.Model(&models.User{}).
		Where("email = ?", "priya@example.com").
		Update("role", models.RoleAdmin).Error)
	adminAccess, _ := env.login(t)

	for _, path := range []string{
		"/api/admin/users",
		"/api/admin/accounts",
		"/api/admin/transactions",
		"/api/admin/receipts",
	} {
		rr = env.do(t, "GET", path, adminAccess, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
