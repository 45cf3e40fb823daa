package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Записи картеры исторически хранят суммы числами JSON, а не строками
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultSeries серия, которой помечаются все записи картеры
const DefaultSeries = "A"

// InitialChargeLabel метка строки первоначального взноса
const InitialChargeLabel = "0"

// InstallmentKind представляет тип записи картеры
type InstallmentKind int

const (
	InitialCharge      InstallmentKind = iota // Первоначальный взнос (CI)
	RegularInstallment                        // Очередная квота i/n (CR)
)

// Code возвращает код типа, под которым он хранится
func (k InstallmentKind) Code() string {
	if k == InitialCharge {
		return "CI"
	}
	return "CR"
}

func (k InstallmentKind) String() string {
	if k == InitialCharge {
		return "InitialCharge"
	}
	return "RegularInstallment"
}

func (k InstallmentKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Code())
}

func (k *InstallmentKind) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("installment kind must be a string: %w", err)
	}
	switch code {
	case "CI":
		*k = InitialCharge
	case "CR":
		*k = RegularInstallment
	default:
		return fmt.Errorf("unknown installment kind %q", code)
	}
	return nil
}

// SettlementStatus статус погашения квоты
type SettlementStatus string

const (
	Unsettled SettlementStatus = "N" // Не погашена
	Settled   SettlementStatus = "C" // Погашена
)

// InstallmentRecord представляет одну строку картеры арендатора (города).
// Имена JSON-полей совпадают с ключами уже сохраненных данных и не должны меняться.
type InstallmentRecord struct {
	ID               string          `json:"id"`
	Country          string          `json:"country"`
	CityCode         string          `json:"cityCode"`
	HolderID         string          `json:"holderId"`
	Series           string          `json:"series"`
	ContractNumber   string          `json:"contractNumber"`
	Kind             InstallmentKind `json:"kind"`
	InstallmentLabel string          `json:"installmentLabel"`
	InvoiceNumber    string          `json:"invoiceNumber"`
	IssueDate        Date            `json:"issueDate"`
	DueDate          Date            `json:"dueDate"`
	AmountDue        decimal.Decimal `json:"amountDue"`
	PaidDate         Date            `json:"paidDate"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	ExecutiveID      string          `json:"executiveId"`
	AssignedYear     PeriodPart      `json:"assignedYear"`
	AssignedMonth    PeriodPart      `json:"assignedMonth"`
	IsSettled        bool            `json:"isSettled"`
	InvoiceID        string          `json:"invoiceId"`
	ContractID       string          `json:"contractId"`
}

// RecomputeSettled пересчитывает флаг погашения: amountPaid >= amountDue
func (r *InstallmentRecord) RecomputeSettled() {
	r.IsSettled = r.AmountPaid.GreaterThanOrEqual(r.AmountDue)
}

// Status возвращает статус погашения
func (r InstallmentRecord) Status() SettlementStatus {
	if r.IsSettled {
		return Settled
	}
	return Unsettled
}

// Outstanding возвращает непогашенный остаток, не меньше нуля
func (r InstallmentRecord) Outstanding() decimal.Decimal {
	rest := r.AmountDue.Sub(r.AmountPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
