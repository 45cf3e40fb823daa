package services

import (
	"goldenapp/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceSettledMessage(t *testing.T) {
	subject, body := invoiceSettledMessage("F-100", dec("1200000"), time.Date(2024, time.May, 2, 9, 30, 0, 0, time.UTC))

	assert.Equal(t, "Factura F-100 pagada", subject)
	assert.Contains(t, body, "1200000.00")
	assert.Contains(t, body, "02/05/2024 09:30")
}

func TestEmailServiceDisabledWithoutHost(t *testing.T) {
	cfg := &config.Config{}
	service := NewEmailService(cfg)

	assert.NoError(t, service.SendInvoiceSettledNotification("a@example.com", "F-1", dec("10")))
}
