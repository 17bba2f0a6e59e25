package config

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		PrivateKeyPath   string
		PublicKeyPath    string
		AccessExpiresIn  int // minutes
		RefreshExpiresIn int // days
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	DailyWithdrawLimit decimal.Decimal // default ceiling for new accounts
	CORSOrigins        []string
}

// NewConfig loads configuration from the environment with sane defaults.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Server
	v.SetDefault("server.port", 8080)

	// Database
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "atm_db")

	// JWT
	v.SetDefault("jwt.private_key_path", "keys/jwtRS256.key")
	v.SetDefault("jwt.public_key_path", "keys/jwtRS256.key.pub")
	v.SetDefault("jwt.access_expires_minutes", 15)
	v.SetDefault("jwt.refresh_expires_days", 7)

	// SMTP
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@atmbank.local")

	// Business defaults
	v.SetDefault("daily_withdraw_limit", "25000.00")
	v.SetDefault("cors.origins", "http://localhost:8081,http://localhost:5173")

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("server.port")

	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")

	cfg.JWT.PrivateKeyPath = v.GetString("jwt.private_key_path")
	cfg.JWT.PublicKeyPath = v.GetString("jwt.public_key_path")
	cfg.JWT.AccessExpiresIn = v.GetInt("jwt.access_expires_minutes")
	cfg.JWT.RefreshExpiresIn = v.GetInt("jwt.refresh_expires_days")

	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")

	limit, err := decimal.NewFromString(v.GetString("daily_withdraw_limit"))
	if err != nil {
		return nil, err
	}
	cfg.DailyWithdrawLimit = limit
	cfg.CORSOrigins = strings.Split(v.GetString("cors.origins"), ",")

	return cfg, nil
}
