package models

import (
	"time"
)

// RevokedToken blacklists one refresh token by its jti until the token would
// have expired on its own. Expired rows are purged by the token service's
// cleanup loop.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	JTI       string    `gorm:"column:jti;unique;not null;size:36"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
