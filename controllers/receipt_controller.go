package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"atmbank/database"
	"atmbank/middleware"
	"atmbank/services"

	"github.com/gorilla/mux"
)

// ReceiptController serves receipt PDFs.
type ReceiptController struct {
	receipts *services.ReceiptService
	db       *database.Database
}

// NewReceiptController creates a new ReceiptController.
func NewReceiptController(db *database.Database) *ReceiptController {
	return &ReceiptController{
		receipts: services.NewReceiptService(db),
		db:       db,
	}
}

func (c *ReceiptController) servePDF(w http.ResponseWriter, bundle *services.ReceiptBundle) {
	pdf, err := c.receipts.RenderPDF(bundle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=receipt-%s.pdf", bundle.Receipt.Number))
	w.Write(pdf)
}

// GetPDF renders one receipt by id.
func (c *ReceiptController) GetPDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid receipt id")
		return
	}

	bundle, err := c.receipts.LoadBundle(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrReceiptNotFound) {
			writeError(w, http.StatusNotFound, "Receipt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load receipt")
		return
	}

	c.servePDF(w, bundle)
}

// GetLatestPDF renders the receipt of the caller's newest transaction.
func (c *ReceiptController) GetLatestPDF(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	account, err := c.db.GetAccountByUserID(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	bundle, err := c.receipts.LoadLatestBundle(account.ID)
	if err != nil {
		if errors.Is(err, services.ErrReceiptNotFound) {
			writeError(w, http.StatusNotFound, "Receipt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load receipt")
		return
	}

	c.servePDF(w, bundle)
}
