package services

import (
	"testing"

	"atmbank/config"
	"atmbank/database"
	"atmbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func registerTestUser(t *testing.T, db *database.Database) (*models.User, *models.Account) {
	t.Helper()

	cfg := &config.Config{DailyWithdrawLimit: dec("25000.00")}
	users := NewUserService(db, cfg)

	user, account, err := users.Register(RegisterRequest{
		Name:          "Priya Sharma",
		Email:         "priya@example.com",
		Phone:         "9876543210",
		AccountNumber: "1234567890",
		PIN:           "4321",
	})
	require.NoError(t, err)
	return user, account
}

func TestRegisterCreatesUserAndAccount(t *testing.T) {
	db := &database.Database{DB: newTestDB(t)}
	user, account := registerTestUser(t, db)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, user.ID, account.UserID)
	assert.True(t, account.Balance.IsZero())
	assert.True(t, account.DailyLimit.Equal(dec("25000.00")))
	assert.Equal(t, int64(0), account.Version)

	// The PIN is stored hashed, never in the clear.
	assert.NotEqual(t, "4321", account.PINHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte("4321")))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := &database.Database{DB: newTestDB(t)}
	registerTestUser(t, db)

	cfg := &config.Config{DailyWithdrawLimit: dec("25000.00")}
	users := NewUserService(db, cfg)

	_, _, err := users.Register(RegisterRequest{
		Name:          "Another Person",
		Email:         "priya@example.com",
		Phone:         "9876543211",
		AccountNumber: "1234567899",
		PIN:           "1111",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, _, err = users.Register(RegisterRequest{
		Name:          "Another Person",
		Email:         "someone-else@example.com",
		Phone:         "9876543211",
		AccountNumber: "1234567890",
		PIN:           "1111",
	})
	assert.ErrorIs(t, err, ErrAccountNumberExists)
}

func TestRegisterClassifiesConstraintRace(t *testing.T) {
	db := &database.Database{DB: newTestDB(t)}

	// A competing registration already claimed the account number; the
	// duplicate is only caught by the unique constraint on insert.
	winner := &models.User{Name: "First Comer", Email: "first@example.com", Phone: "9876543212"}
	require.NoError(t, db.DB.Create(winner).Error)
	require.NoError(t, db.DB.Create(&models.Account{
		UserID:     winner.ID,
		Number:     "1234567890",
		PINHash:    "not-a-real-hash",
		DailyLimit: dec("25000.00"),
	}).Error)

	cfg := &config.Config{DailyWithdrawLimit: dec("25000.00")}
	users := NewUserService(db, cfg)

	_, _, err := users.Register(RegisterRequest{
		Name:          "Second Comer",
		Email:         "second@example.com",
		Phone:         "9876543213",
		AccountNumber: "1234567890",
		PIN:           "4321",
	})
	assert.ErrorIs(t, err, ErrAccountNumberExists)

	// The losing registration leaves no orphaned user behind.
	var count int64
	require.NoError(t, db.DB.Model(&models.User{}).
		Where("email = ?", "second@example.com").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestFindAccountByNumber(t *testing.T) {
	db := &database.Database{DB: newTestDB(t)}
	user, account := registerTestUser(t, db)

	auth := NewAuthService(db)

	foundUser, foundAccount, err := auth.FindAccountByNumber(account.Number)
	require.NoError(t, err)
	assert.Equal(t, user.ID, foundUser.ID)
	assert.Equal(t, account.ID, foundAccount.ID)

	_, _, err = auth.FindAccountByNumber("0000000000")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVerifyPIN(t *testing.T) {
	db := &database.Database{DB: newTestDB(t)}
	_, account := registerTestUser(t, db)

	auth := NewAuthService(db)
	assert.True(t, auth.VerifyPIN(account, "4321"))
	assert.False(t, auth.VerifyPIN(account, "9999"))
}

func TestChangePIN(t *testing.T) {
	db := &database.Database{DB: newTestDB(t)}
	_, account := registerTestUser(t, db)

	auth := NewAuthService(db)

	err := auth.ChangePIN(account, "0000", "5678")
	assert.ErrorIs(t, err, ErrInvalidPIN)

	require.NoError(t, auth.ChangePIN(account, "4321", "5678"))

	// The new hash is persisted.
	stored, err := db.GetAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, auth.VerifyPIN(stored, "5678"))
	assert.False(t, auth.VerifyPIN(stored, "4321"))
}
