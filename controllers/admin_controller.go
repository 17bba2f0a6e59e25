package controllers

import (
	"net/http"
	"strconv"

	"atmbank/database"
)

// AdminController serves the paginated listing endpoints. Role enforcement
// happens in middleware.RequireAdmin; these handlers only shape data.
type AdminController struct {
	db *database.Database
}

// NewAdminController creates a new AdminController.
func NewAdminController(db *database.Database) *AdminController {
	return &AdminController{db: db}
}

const maxListLimit = 100

func listParams(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// ListUsers returns the newest users.
func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	users, err := c.db.ListUsers(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	result := make([]userJSON, 0, len(users))
	for i := range users {
		result = append(result, toUserJSON(&users[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

// ListAccounts returns the newest accounts.
func (c *AdminController) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	accounts, err := c.db.ListAccounts(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	result := make([]accountJSON, 0, len(accounts))
	for i := range accounts {
		result = append(result, toAccountJSON(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

// ListTransactions returns the newest transactions across all accounts.
func (c *AdminController) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	transactions, err := c.db.ListTransactions(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	result := make([]transactionJSON, 0, len(transactions))
	for i := range transactions {
		result = append(result, toTransactionJSON(&transactions[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

// ListReceipts returns the newest receipts.
func (c *AdminController) ListReceipts(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	receipts, err := c.db.ListReceipts(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts")
		return
	}

	result := make([]receiptJSON, 0, len(receipts))
	for i := range receipts {
		result = append(result, toReceiptJSON(&receipts[i]))
	}
	writeJSON(w, http.StatusOK, result)
}
