package services

import (
	"errors"

	"atmbank/database"
	"atmbank/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService verifies PIN credentials against their bcrypt hashes.
type AuthService struct {
	db *database.Database
}

func NewAuthService(db *database.Database) *AuthService {
	return &AuthService{db: db}
}

// FindAccountByNumber loads an account and its holder for login.
func (s *AuthService) FindAccountByNumber(number string) (*models.User, *models.Account, error) {
	account, err := s.db.GetAccountByNumber(number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	user, err := s.db.GetUserByID(account.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	return user, account, nil
}

// VerifyPIN reports whether the PIN matches the account's stored hash.
func (s *AuthService) VerifyPIN(account *models.Account, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte(pin)) == nil
}

// ChangePIN replaces the account PIN after verifying the current one.
func (s *AuthService) ChangePIN(account *models.Account, currentPIN, newPIN string) error {
	if !s.VerifyPIN(account, currentPIN) {
		return ErrInvalidPIN
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.DB.Model(account).Update("pin_hash", string(pinHash)).Error
}
