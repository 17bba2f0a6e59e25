package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Role gates access to the admin listing endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null;size:100"`
	Email     string    `gorm:"column:email;unique;not null;size:255;index"`
	Phone     string    `gorm:"column:phone;not null;size:15"`
	Role      Role      `gorm:"column:role;not null;size:20;default:'user'"`
	Accounts  []Account `gorm:"foreignKey:UserID"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate validates the profile before insert.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Name) < 2 || len(u.Name) > 100 {
		return errors.New("name must be between 2 and 100 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 255 {
		return errors.New("email must be between 3 and 255 characters")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
