package services

import (
	"fmt"
	"goldenapp/config"
	"goldenapp/utils"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

// NewEmailService создает новый экземпляр EmailService.
// Без SMTP_HOST сервис ничего не отправляет.
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
		),
		from:    cfg.SMTP.From,
		enabled: cfg.SMTP.Host != "",
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.enabled {
		utils.LogDebug("smtp disabled, skipping email %q to %s", subject, to)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SendInvoiceSettledNotification уведомляет о полном погашении счета
func (s *EmailService) SendInvoiceSettledNotification(to, invoiceNumber string, total decimal.Decimal) error {
	subject, body := invoiceSettledMessage(invoiceNumber, total, time.Now())
	return s.SendEmail(to, subject, body)
}

func invoiceSettledMessage(invoiceNumber string, total decimal.Decimal, at time.Time) (string, string) {
	subject := fmt.Sprintf("Factura %s pagada", invoiceNumber)
	body := fmt.Sprintf(`
		<h2>Factura pagada</h2>
		<p>Factura: %s</p>
		<p>Total pagado: %s</p>
		<p>Fecha: %s</p>
	`, invoiceNumber, total.StringFixed(2), at.Format("02/01/2006 15:04"))
	return subject, body
}
