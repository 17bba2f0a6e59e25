package models

import (
	"time"
)

// Receipt documents exactly one transaction. The number is derived from the
// transaction's creation time and id when the receipt is issued and is never
// recomputed afterwards; the unique index makes the 1:1 link enforceable.
type Receipt struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	TransactionID uint      `gorm:"column:transaction_id;not null;index"`
	Number        string    `gorm:"column:receipt_number;unique;not null;size:50"`
	Content       string    `gorm:"column:content;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`
}

func (Receipt) TableName() string {
	return "receipts"
}
