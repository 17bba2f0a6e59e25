package services

import (
	"fmt"
	"time"

	"atmbank/config"
	"atmbank/models"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService sends customer notifications over SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService creates a new EmailService.
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail sends a single HTML email.
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendTransactionNotification notifies the account holder about a completed
// withdrawal or deposit. Failures are the caller's to log; the transaction
// itself has already committed.
func (s *EmailService) SendTransactionNotification(to, maskedNumber string, txType models.TransactionType, amount, balanceAfter decimal.Decimal) error {
	subject := "Transaction notification"
	body := fmt.Sprintf(`
		<h2>Transaction notification</h2>
		<p>Account: %s</p>
		<p>Operation: %s</p>
		<p>Amount: %s</p>
		<p>Balance after: %s</p>
		<p>Date: %s</p>
	`, maskedNumber, txType, amount.StringFixed(2), balanceAfter.StringFixed(2),
		time.Now().Format("2006-01-02 15:04:05"))

	return s.SendEmail(to, subject, body)
}
