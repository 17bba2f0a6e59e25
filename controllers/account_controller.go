package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"atmbank/database"
	"atmbank/middleware"
	"atmbank/models"
	"atmbank/services"
	"atmbank/utils"

	"github.com/shopspring/decimal"
)

// AccountController handles balance inquiry and the withdraw/deposit
// endpoints. All business failures come out of the transaction service as
// typed errors; this layer only maps them to HTTP statuses.
type AccountController struct {
	db           *database.Database
	transactions *services.TransactionService
	email        *services.EmailService
}

// NewAccountController creates a new AccountController.
func NewAccountController(db *database.Database, email *services.EmailService) *AccountController {
	return &AccountController{
		db:           db,
		transactions: services.NewTransactionService(db.DB),
		email:        email,
	}
}

type amountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type balanceResponse struct {
	Balance        string `json:"balance"`
	DailyLimit     string `json:"daily_limit"`
	DailyWithdrawn string `json:"daily_withdrawn"`
}

type mutationResponse struct {
	Success     bool            `json:"success"`
	Transaction transactionJSON `json:"transaction"`
	Receipt     receiptJSON     `json:"receipt"`
	NewBalance  string          `json:"new_balance"`
}

// mutationStatus maps the orchestrator's error taxonomy onto HTTP statuses.
// The mapping is total over the taxonomy; anything else is a server error.
func mutationStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDailyLimitExceeded):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConcurrentUpdate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (c *AccountController) accountForRequest(w http.ResponseWriter, r *http.Request) *models.Account {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return nil
	}

	account, err := c.transactions.GetAccountByUserID(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return nil
	}
	return account
}

// Balance returns the caller's balance and daily-limit state.
func (c *AccountController) Balance(w http.ResponseWriter, r *http.Request) {
	account := c.accountForRequest(w, r)
	if account == nil {
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		Balance:        account.Balance.StringFixed(2),
		DailyLimit:     account.DailyLimit.StringFixed(2),
		DailyWithdrawn: account.DailyWithdrawn.StringFixed(2),
	})
}

// Withdraw debits the caller's account.
func (c *AccountController) Withdraw(w http.ResponseWriter, r *http.Request) {
	account := c.accountForRequest(w, r)
	if account == nil {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, receipt, err := c.transactions.Withdraw(account, req.Amount, account.DailyLimit, req.Description)
	if err != nil {
		writeError(w, mutationStatus(err), err.Error())
		return
	}

	c.notify(account, record)

	writeJSON(w, http.StatusOK, mutationResponse{
		Success:     true,
		Transaction: toTransactionJSON(record),
		Receipt:     toReceiptJSON(receipt),
		NewBalance:  record.BalanceAfter.StringFixed(2),
	})
}

// Deposit credits the caller's account.
func (c *AccountController) Deposit(w http.ResponseWriter, r *http.Request) {
	account := c.accountForRequest(w, r)
	if account == nil {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, receipt, err := c.transactions.Deposit(account, req.Amount, req.Description)
	if err != nil {
		writeError(w, mutationStatus(err), err.Error())
		return
	}

	c.notify(account, record)

	writeJSON(w, http.StatusOK, mutationResponse{
		Success:     true,
		Transaction: toTransactionJSON(record),
		Receipt:     toReceiptJSON(receipt),
		NewBalance:  record.BalanceAfter.StringFixed(2),
	})
}

// History lists the caller's newest transactions.
func (c *AccountController) History(w http.ResponseWriter, r *http.Request) {
	account := c.accountForRequest(w, r)
	if account == nil {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	transactions, err := c.transactions.History(account.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	result := make([]transactionJSON, 0, len(transactions))
	for i := range transactions {
		result = append(result, toTransactionJSON(&transactions[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

// notify emails the holder about a committed transaction. The mutation has
// already been applied; notification failures only get logged.
func (c *AccountController) notify(account *models.Account, record *models.Transaction) {
	user, err := c.db.GetUserByID(account.UserID)
	if err != nil {
		utils.LogError("failed to load user %d for notification: %v", account.UserID, err)
		return
	}

	go func() {
		if err := c.email.SendTransactionNotification(
			user.Email, account.MaskedNumber(), record.Type, record.Amount, record.BalanceAfter,
		); err != nil {
			utils.LogError("failed to send transaction notification: %v", err)
		}
	}()
}
