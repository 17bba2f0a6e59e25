package services

import (
	"errors"

	"atmbank/config"
	"atmbank/database"
	"atmbank/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService handles registration and user lookups.
type UserService struct {
	db  *database.Database
	cfg *config.Config
}

// RegisterRequest carries the data for creating a user and their account.
type RegisterRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,len=10,numeric"`
	AccountNumber string `json:"account_number" validate:"required,account_number"`
	PIN           string `json:"pin" validate:"required,pin"`
}

func NewUserService(db *database.Database, cfg *config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

// Register creates a user together with their single account. The PIN is
// stored as a bcrypt hash, the balance starts at zero and the daily limit
// comes from configuration.
func (s *UserService) Register(req RegisterRequest) (*models.User, *models.Account, error) {
	var existingUser models.User
	if err := s.db.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error; err == nil {
		return nil, nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  models.RoleUser,
	}
	account := &models.Account{
		Number:     req.AccountNumber,
		PINHash:    string(pinHash),
		DailyLimit: s.cfg.DailyWithdrawLimit,
	}

	// User and account are created together or not at all. Uniqueness is
	// enforced by the DB constraints, so a registration losing a race with a
	// concurrent duplicate fails here rather than in the check above.
	err = s.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		account.UserID = user.ID
		return tx.Create(account).Error
	})
	if err != nil {
		return nil, nil, s.classifyRegisterError(req, err)
	}

	return user, account, nil
}

// classifyRegisterError turns a failed registration insert into the matching
// duplicate error when a conflicting row exists, which is the case when a
// concurrent registration won the unique-constraint race.
func (s *UserService) classifyRegisterError(req RegisterRequest, err error) error {
	var existingUser models.User
	if e := s.db.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error; e == nil {
		return ErrEmailExists
	}
	var existingAccount models.Account
	if e := s.db.DB.Where("account_number = ?", req.AccountNumber).First(&existingAccount).Error; e == nil {
		return ErrAccountNumberExists
	}
	return err
}

// FindByID loads one user.
func (s *UserService) FindByID(id uint) (*models.User, error) {
	user, err := s.db.GetUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
