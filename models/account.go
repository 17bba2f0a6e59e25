package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the ledger record for one card/PIN holder.
//
// DailyWithdrawn is only meaningful while LastWithdrawalDate equals the
// current calendar date; on any other date it is stale and must be treated
// as zero. Version increments exactly once per successful balance mutation
// and is the optimistic-concurrency token for the conditional update in
// services.TransactionService.
type Account struct {
	ID                 uint            `gorm:"primaryKey;autoIncrement"`
	UserID             uint            `gorm:"column:user_id;not null;index"`
	User               User            `gorm:"foreignKey:UserID;references:ID"`
	Number             string          `gorm:"column:account_number;unique;not null;size:16"`
	PINHash            string          `gorm:"column:pin_hash;not null;size:255"`
	Balance            decimal.Decimal `gorm:"column:balance;type:decimal(15,2);not null;default:0.00"`
	DailyLimit         decimal.Decimal `gorm:"column:daily_limit;type:decimal(15,2);not null;default:25000.00"`
	DailyWithdrawn     decimal.Decimal `gorm:"column:daily_withdrawn;type:decimal(15,2);not null;default:0.00"`
	LastWithdrawalDate *time.Time      `gorm:"column:last_withdrawal_date;type:date"`
	Version            int64           `gorm:"column:version;not null;default:0"`
	Transactions       []Transaction   `gorm:"foreignKey:AccountID"`
	CreatedAt          time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string {
	return "accounts"
}

// MaskedNumber hides all but the last four digits for receipts and logs.
func (a *Account) MaskedNumber() string {
	if len(a.Number) < 4 {
		return "****"
	}
	return "****" + a.Number[len(a.Number)-4:]
}
