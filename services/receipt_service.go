package services

import (
	"bytes"
	"errors"
	"fmt"

	"atmbank/database"
	"atmbank/models"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// ReceiptService locates receipts and renders them as PDF documents.
// Rendering is purely presentational; the receipt record itself never
// changes after issuance.
type ReceiptService struct {
	db *database.Database
}

// ReceiptBundle is everything needed to render one receipt.
type ReceiptBundle struct {
	Receipt     *models.Receipt
	Transaction *models.Transaction
	Account     *models.Account
	User        *models.User
}

var ErrReceiptNotFound = errors.New("receipt not found")

func NewReceiptService(db *database.Database) *ReceiptService {
	return &ReceiptService{db: db}
}

// LoadBundle resolves a receipt together with its transaction, account and
// holder.
func (s *ReceiptService) LoadBundle(receiptID uint) (*ReceiptBundle, error) {
	receipt, err := s.db.GetReceiptByID(receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return s.resolve(receipt)
}

// LoadLatestBundle resolves the receipt of an account's newest transaction.
func (s *ReceiptService) LoadLatestBundle(accountID uint) (*ReceiptBundle, error) {
	transactions, err := s.db.ListAccountTransactions(accountID, 1)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, ErrReceiptNotFound
	}

	receipt, err := s.db.GetReceiptByTransactionID(transactions[0].ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return s.resolve(receipt)
}

func (s *ReceiptService) resolve(receipt *models.Receipt) (*ReceiptBundle, error) {
	transaction, err := s.db.GetTransactionByID(receipt.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	account, err := s.db.GetAccountByID(transaction.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	user, err := s.db.GetUserByID(account.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}

	return &ReceiptBundle{
		Receipt:     receipt,
		Transaction: transaction,
		Account:     account,
		User:        user,
	}, nil
}

// RenderPDF produces the printable receipt document.
func (s *ReceiptService) RenderPDF(bundle *ReceiptBundle) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "ATM SIMULATOR - Transaction Receipt")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Receipt No: %s", bundle.Receipt.Number),
		fmt.Sprintf("Date: %s", bundle.Transaction.CreatedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Account: %s", bundle.Account.MaskedNumber()),
		fmt.Sprintf("Name: %s", bundle.User.Name),
		fmt.Sprintf("Transaction: %s", bundle.Transaction.Type),
		fmt.Sprintf("Amount: %s", bundle.Transaction.Amount.StringFixed(2)),
		fmt.Sprintf("Balance After: %s", bundle.Transaction.BalanceAfter.StringFixed(2)),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 7, "Thank you for banking with us. Please retain this receipt.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}
