package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"atmbank/config"
	"atmbank/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the gorm connection.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a connection using the application configuration.
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// GetDB returns the underlying gorm instance.
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect establishes the database connection and runs migrations.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run SQL migrations: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	return db, nil
}

// runMigrations applies the SQL migrations from the migrations directory.
func runMigrations(cfg *config.Config) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// AutoMigrate keeps the gorm schema in sync with the models. It is also used
// by tests to build the schema on an in-memory database.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Transaction{},
		&models.Receipt{},
		&models.RevokedToken{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	return nil
}

// User queries

func (d *Database) CreateUser(user *models.User) error {
	return d.DB.Create(user).Error
}

func (d *Database) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := d.DB.First(&user, id).Error
	return &user, err
}

func (d *Database) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := d.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

// Account queries

func (d *Database) CreateAccount(account *models.Account) error {
	return d.DB.Create(account).Error
}

func (d *Database) GetAccountByID(id uint) (*models.Account, error) {
	var account models.Account
	err := d.DB.First(&account, id).Error
	return &account, err
}

func (d *Database) GetAccountByNumber(number string) (*models.Account, error) {
	var account models.Account
	err := d.DB.Where("account_number = ?", number).First(&account).Error
	return &account, err
}

func (d *Database) GetAccountByUserID(userID uint) (*models.Account, error) {
	var account models.Account
	err := d.DB.Where("user_id = ?", userID).First(&account).Error
	return &account, err
}

// Transaction queries

func (d *Database) GetTransactionByID(id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := d.DB.First(&transaction, id).Error
	return &transaction, err
}

// ListAccountTransactions returns the newest transactions for one account.
func (d *Database) ListAccountTransactions(accountID uint, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := d.DB.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// Receipt queries

func (d *Database) GetReceiptByID(id uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := d.DB.First(&receipt, id).Error
	return &receipt, err
}

func (d *Database) GetReceiptByTransactionID(transactionID uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := d.DB.Where("transaction_id = ?", transactionID).First(&receipt).Error
	return &receipt, err
}

// Admin listings, newest first

func (d *Database) ListUsers(limit, offset int) ([]models.User, error) {
	var users []models.User
	err := d.DB.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func (d *Database) ListAccounts(limit, offset int) ([]models.Account, error) {
	var accounts []models.Account
	err := d.DB.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&accounts).Error
	return accounts, err
}

func (d *Database) ListTransactions(limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := d.DB.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&transactions).Error
	return transactions, err
}

func (d *Database) ListReceipts(limit, offset int) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := d.DB.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&receipts).Error
	return receipts, err
}
