package services

import "errors"

// Business errors raised by the transaction orchestrator. Controllers map
// these to HTTP statuses with errors.Is; no other layer reinterprets them.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDailyLimitExceeded  = errors.New("daily limit exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrAccountNumberExists = errors.New("account number already exists")
	ErrInvalidPIN          = errors.New("invalid PIN")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidToken        = errors.New("invalid token")
)
