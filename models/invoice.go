package models

import (
	"github.com/shopspring/decimal"
)

// Invoice представляет выставленный счет, из которого строится график квот
type Invoice struct {
	ID               string           `json:"id"`
	InvoiceNumber    string           `json:"invoiceNumber"`
	ClientID         string           `json:"clientId"`
	Country          string           `json:"country"`
	CityCode         string           `json:"cityCode"`
	Amount           *decimal.Decimal `json:"amount"`
	IssueDate        Date             `json:"issueDate"`
	FirstPaymentDate Date             `json:"firstPaymentDate"`
}
