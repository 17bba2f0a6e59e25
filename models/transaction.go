package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of balance mutation; the amount is always a
// positive magnitude, the sign is implied by the type.
type TransactionType string

const (
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeDeposit    TransactionType = "deposit"
)

// Transaction is immutable once created: one row per successful mutation,
// never updated or deleted.
type Transaction struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	AccountID    uint            `gorm:"column:account_id;not null;index"`
	Type         TransactionType `gorm:"column:type;not null;size:20"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(15,2);not null"`
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:decimal(15,2);not null"`
	Description  string          `gorm:"column:description;size:255"`
	CreatedAt    time.Time       `gorm:"column:created_at;index"`
}

func (Transaction) TableName() string {
	return "transactions"
}
