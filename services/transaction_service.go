package services

import (
	"errors"
	"strconv"
	"time"

	"atmbank/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionService owns the balance-mutation protocol: the daily
// withdrawal window, the optimistic-concurrency commit and the atomic
// creation of the transaction and receipt records.
//
// A mutation either applies the account update, the transaction and the
// receipt together, or applies nothing. On a version conflict the whole
// unit rolls back and ErrConcurrentUpdate is returned; the service never
// retries on its own, callers re-read the account and re-invoke.
type TransactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// applyDailyWindow resets the daily-withdrawn accumulator when the account's
// last withdrawal happened on an earlier calendar date. It only touches the
// in-memory account; persistence happens in the enclosing mutation.
func applyDailyWindow(account *models.Account, today time.Time) {
	if account.LastWithdrawalDate == nil || !sameDate(*account.LastWithdrawalDate, today) {
		account.DailyWithdrawn = decimal.Zero
		account.LastWithdrawalDate = &today
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfDay truncates t to its calendar date.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// buildReceiptNumber derives the stable receipt number from the
// transaction's creation timestamp and id.
func buildReceiptNumber(tx *models.Transaction) string {
	return "RCP" + tx.CreatedAt.Format("20060102150405") + strconv.FormatUint(uint64(tx.ID), 10)
}

// Withdraw debits amount from the account subject to the daily limit.
//
// It returns ErrInvalidAmount for non-positive amounts,
// ErrDailyLimitExceeded when the rolling window would overflow,
// ErrInsufficientBalance when the balance does not cover the amount, and
// ErrConcurrentUpdate when another writer committed between our read of the
// account and the conditional update. On success the in-memory account is
// updated to the committed values.
func (s *TransactionService) Withdraw(account *models.Account, amount, dailyLimit decimal.Decimal, description string) (*models.Transaction, *models.Receipt, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}
	if description == "" {
		description = "ATM Withdrawal"
	}

	today := startOfDay(time.Now())
	applyDailyWindow(account, today)

	if account.DailyWithdrawn.Add(amount).GreaterThan(dailyLimit) {
		return nil, nil, ErrDailyLimitExceeded
	}
	if account.Balance.LessThan(amount) {
		return nil, nil, ErrInsufficientBalance
	}

	prevVersion := account.Version
	newBalance := account.Balance.Sub(amount)
	newDailyWithdrawn := account.DailyWithdrawn.Add(amount)

	var (
		record  *models.Transaction
		receipt *models.Receipt
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Compare-and-swap on the version counter. Zero rows affected means
		// somebody else committed since we read the account.
		res := tx.Model(&models.Account{}).
			Where("id = ? AND version = ?", account.ID, prevVersion).
			Updates(map[string]interface{}{
				"balance":              newBalance,
				"daily_withdrawn":      newDailyWithdrawn,
				"last_withdrawal_date": today,
				"version":              prevVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		record = &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeWithdrawal,
			Amount:       amount,
			BalanceAfter: newBalance,
			Description:  description,
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		receipt = &models.Receipt{
			TransactionID: record.ID,
			Number:        buildReceiptNumber(record),
			CreatedAt:     time.Now(),
		}
		return tx.Create(receipt).Error
	})
	if err != nil {
		return nil, nil, err
	}

	account.Balance = newBalance
	account.DailyWithdrawn = newDailyWithdrawn
	account.LastWithdrawalDate = &today
	account.Version = prevVersion + 1

	return record, receipt, nil
}

// Deposit credits amount to the account. Deposits skip the daily window and
// limit checks entirely; only the amount sign is validated. The commit uses
// the same optimistic-concurrency protocol as Withdraw.
func (s *TransactionService) Deposit(account *models.Account, amount decimal.Decimal, description string) (*models.Transaction, *models.Receipt, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}
	if description == "" {
		description = "ATM Deposit"
	}

	prevVersion := account.Version
	newBalance := account.Balance.Add(amount)

	var (
		record  *models.Transaction
		receipt *models.Receipt
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ? AND version = ?", account.ID, prevVersion).
			Updates(map[string]interface{}{
				"balance": newBalance,
				"version": prevVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		record = &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeDeposit,
			Amount:       amount,
			BalanceAfter: newBalance,
			Description:  description,
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		receipt = &models.Receipt{
			TransactionID: record.ID,
			Number:        buildReceiptNumber(record),
			CreatedAt:     time.Now(),
		}
		return tx.Create(receipt).Error
	})
	if err != nil {
		return nil, nil, err
	}

	account.Balance = newBalance
	account.Version = prevVersion + 1

	return record, receipt, nil
}

// History returns the newest transactions for an account.
func (s *TransactionService) History(accountID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	var transactions []models.Transaction
	err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// GetAccountByUserID loads the account owned by a user.
func (s *TransactionService) GetAccountByUserID(userID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}
