package controllers

import (
	"encoding/json"
	"net/http"

	"atmbank/models"
)

// errorResponse is the failure envelope shared by all endpoints.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// JSON DTOs shared across controllers.

type userJSON struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type accountJSON struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	AccountNumber  string `json:"account_number"`
	Balance        string `json:"balance"`
	DailyLimit     string `json:"daily_limit"`
	DailyWithdrawn string `json:"daily_withdrawn"`
	CreatedAt      string `json:"created_at"`
}

type transactionJSON struct {
	ID           uint   `json:"id"`
	AccountID    uint   `json:"account_id"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	BalanceAfter string `json:"balance_after"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
}

type receiptJSON struct {
	ID            uint   `json:"id"`
	TransactionID uint   `json:"transaction_id"`
	ReceiptNumber string `json:"receipt_number"`
	Content       string `json:"content"`
	CreatedAt     string `json:"created_at"`
}

const timeLayout = "2006-01-02 15:04:05"

func toUserJSON(u *models.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
}

func toAccountJSON(a *models.Account) accountJSON {
	return accountJSON{
		ID:             a.ID,
		UserID:         a.UserID,
		AccountNumber:  a.Number,
		Balance:        a.Balance.StringFixed(2),
		DailyLimit:     a.DailyLimit.StringFixed(2),
		DailyWithdrawn: a.DailyWithdrawn.StringFixed(2),
		CreatedAt:      a.CreatedAt.Format(timeLayout),
	}
}

func toTransactionJSON(t *models.Transaction) transactionJSON {
	return transactionJSON{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Type:         string(t.Type),
		Amount:       t.Amount.StringFixed(2),
		BalanceAfter: t.BalanceAfter.StringFixed(2),
		Description:  t.Description,
		CreatedAt:    t.CreatedAt.Format(timeLayout),
	}
}

func toReceiptJSON(r *models.Receipt) receiptJSON {
	return receiptJSON{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		ReceiptNumber: r.Number,
		Content:       r.Content,
		CreatedAt:     r.CreatedAt.Format(timeLayout),
	}
}
