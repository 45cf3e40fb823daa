package services

import (
	"errors"
	"fmt"
	"goldenapp/models"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Коды предупреждений, которые не прерывают операцию
const (
	WarningInstallmentNotFound   = "installment_not_found"
	WarningMalformedLedger       = "malformed_ledger"
	WarningDefaultInstallments   = "default_installment_count"
	WarningEmptyInstallmentField = "empty_installment_field"
)

var (
	ErrContractNotFound = errors.New("contract not found")
	ErrPlanNotFound     = errors.New("plan not found")
)

// LookupError сообщает, что договор или план не найден.
// Операция прерывается без изменения картеры.
type LookupError struct {
	Kind error
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Key)
}

func (e *LookupError) Unwrap() error {
	return e.Kind
}

// Warning описывает восстановимую проблему, собранную рядом с успешным результатом
type Warning struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	InvoiceNumber    string `json:"invoiceNumber,omitempty"`
	InstallmentLabel string `json:"installmentLabel,omitempty"`
}

// ScheduleResult результат построения графика квот
type ScheduleResult struct {
	Records  []models.InstallmentRecord `json:"records"`
	Warnings []Warning                  `json:"warnings"`
}

// Posting одно изменение оплаченной суммы квоты
type Posting struct {
	RecordID         string          `json:"recordId"`
	InstallmentLabel string          `json:"installmentLabel"`
	Amount           decimal.Decimal `json:"amount"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	IsSettled        bool            `json:"isSettled"`
	Partial          bool            `json:"partial,omitempty"`
}

// PaymentResult результат применения или отмены поступления
type PaymentResult struct {
	Postings []Posting `json:"postings"`
	Warnings []Warning `json:"warnings"`
}

// AssignmentResult результат закрепления счетов за исполнителем
type AssignmentResult struct {
	Updated   int `json:"updated"`
	Unmatched int `json:"unmatched"`
}

var newRecordID = uuid.NewString

// GenerateSchedule разворачивает счет в первоначальный взнос и count очередных квот.
// plan может быть nil: тогда берется DefaultInstallmentCount с предупреждением.
func GenerateSchedule(invoice models.Invoice, contract models.Contract, plan *models.Plan, today models.Date) ScheduleResult {
	var warnings []Warning

	count := 0
	if plan != nil {
		count = plan.InstallmentCount
	}
	if count <= 0 {
		count = models.DefaultInstallmentCount
		warnings = append(warnings, Warning{
			Code:          WarningDefaultInstallments,
			Message:       fmt.Sprintf("installment count missing, assuming %d", count),
			InvoiceNumber: invoice.InvoiceNumber,
		})
	}

	// Сумма одной квоты, округленная до 2 знаков
	total := decimal.Zero
	if invoice.Amount != nil {
		total = *invoice.Amount
	}
	perInstallment := total.Div(decimal.NewFromInt(int64(count))).Round(2)

	issueDate := firstDate(invoice.IssueDate, today)
	base := firstDate(invoice.FirstPaymentDate, contract.InitialDate, invoice.IssueDate, today)

	cityCode := invoice.CityCode
	if cityCode == "" {
		cityCode = contract.CityCode
	}
	country := invoice.Country
	if country == "" {
		country = contract.Country
	}
	holderID := invoice.ClientID
	if holderID == "" {
		holderID = contract.HolderID
	}

	newRecord := func(kind models.InstallmentKind, label string, due models.Date) models.InstallmentRecord {
		record := models.InstallmentRecord{
			ID:               newRecordID(),
			Country:          country,
			CityCode:         cityCode,
			HolderID:         holderID,
			Series:           models.DefaultSeries,
			ContractNumber:   contract.ContractNumber,
			Kind:             kind,
			InstallmentLabel: label,
			InvoiceNumber:    invoice.InvoiceNumber,
			IssueDate:        issueDate,
			DueDate:          due,
			AmountDue:        perInstallment,
			AmountPaid:       decimal.Zero,
			InvoiceID:        invoice.ID,
			ContractID:       contract.ID,
		}
		record.RecomputeSettled()
		return record
	}

	records := make([]models.InstallmentRecord, 0, count+1)
	records = append(records, newRecord(models.InitialCharge, models.InitialChargeLabel, issueDate))
	for i := 1; i <= count; i++ {
		label := fmt.Sprintf("%d/%d", i, count)
		records = append(records, newRecord(models.RegularInstallment, label, base.AddMonths(i-1)))
	}

	return ScheduleResult{Records: records, Warnings: warnings}
}

// ApplyPayment зачисляет поступление на совпавшие квоты картеры.
// Записи изменяются на месте; ненайденные квоты пропускаются с предупреждением.
func ApplyPayment(records []models.InstallmentRecord, inflow models.Inflow) PaymentResult {
	allocs, warnings := allocate(inflow)
	result := PaymentResult{Warnings: warnings}

	for _, a := range allocs {
		idx := findInstallment(records, inflow.InvoiceNumber, inflow.HolderID, a.label)
		if idx < 0 {
			result.Warnings = append(result.Warnings, notFoundWarning(inflow.InvoiceNumber, a.label))
			continue
		}

		record := &records[idx]
		record.AmountPaid = record.AmountPaid.Add(a.amount)
		record.PaidDate = inflow.Date
		record.RecomputeSettled()
		result.Postings = append(result.Postings, postingOf(record, a.amount, a.partial))
	}

	return result
}

// RevertPayment точная обратная операция к ApplyPayment.
// Оплаченная сумма не опускается ниже нуля; при нуле дата оплаты очищается.
func RevertPayment(records []models.InstallmentRecord, inflow models.Inflow) PaymentResult {
	allocs, warnings := allocate(inflow)
	result := PaymentResult{Warnings: warnings}

	for _, a := range allocs {
		idx := findInstallment(records, inflow.InvoiceNumber, inflow.HolderID, a.label)
		if idx < 0 {
			result.Warnings = append(result.Warnings, notFoundWarning(inflow.InvoiceNumber, a.label))
			continue
		}

		record := &records[idx]
		record.AmountPaid = decimal.Max(decimal.Zero, record.AmountPaid.Sub(a.amount))
		if record.AmountPaid.IsZero() {
			record.PaidDate = models.Date{}
		}
		record.RecomputeSettled()
		result.Postings = append(result.Postings, postingOf(record, a.amount.Neg(), a.partial))
	}

	return result
}

// ApplyAssignment проставляет исполнителя и период на все записи,
// совпавшие по (номер счета, квота), без учета владельца.
func ApplyAssignment(records []models.InstallmentRecord, assignment models.Assignment) AssignmentResult {
	var result AssignmentResult

	for _, account := range assignment.Accounts {
		matched := 0
		for i := range records {
			if records[i].InvoiceNumber != account.InvoiceNumber ||
				!labelsMatch(records[i].InstallmentLabel, account.PendingInstallment) {
				continue
			}
			records[i].ExecutiveID = assignment.ExecutiveID
			records[i].AssignedYear = models.PeriodPart(assignment.Year)
			records[i].AssignedMonth = models.PeriodPart(assignment.Month)
			matched++
		}
		if matched == 0 {
			result.Unmatched++
		}
		result.Updated += matched
	}

	return result
}

type allocation struct {
	label   string
	amount  decimal.Decimal
	partial bool
}

// allocate раскладывает поступление по квотам.
// Устаревший формат делит общую сумму поровну между перечисленными квотами.
func allocate(inflow models.Inflow) ([]allocation, []Warning) {
	if inflow.IsDetailed() {
		allocs := make([]allocation, 0, len(inflow.Details))
		for _, d := range inflow.Details {
			allocs = append(allocs, allocation{label: d.InstallmentLabel, amount: d.AmountToApply, partial: d.IsPartial})
		}
		return allocs, nil
	}

	labels := splitInstallmentField(inflow.InstallmentField)
	if len(labels) == 0 {
		return nil, []Warning{{
			Code:          WarningEmptyInstallmentField,
			Message:       "inflow names no installments",
			InvoiceNumber: inflow.InvoiceNumber,
		}}
	}

	share := inflow.Amount.Div(decimal.NewFromInt(int64(len(labels))))
	allocs := make([]allocation, 0, len(labels))
	for _, label := range labels {
		allocs = append(allocs, allocation{label: label, amount: share})
	}
	return allocs, nil
}

func splitInstallmentField(field string) []string {
	var labels []string
	for _, part := range strings.Split(field, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}

func findInstallment(records []models.InstallmentRecord, invoiceNumber, holderID, label string) int {
	for i := range records {
		if records[i].InvoiceNumber == invoiceNumber &&
			records[i].HolderID == holderID &&
			labelsMatch(records[i].InstallmentLabel, label) {
			return i
		}
	}
	return -1
}

// labelsMatch сравнивает метки квот по числовому префиксу: "3/12" == "3"
func labelsMatch(a, b string) bool {
	pa := installmentPrefix(a)
	return pa != "" && pa == installmentPrefix(b)
}

func installmentPrefix(label string) string {
	if i := strings.Index(label, "/"); i >= 0 {
		label = label[:i]
	}
	label = strings.TrimSpace(label)
	if n, err := strconv.Atoi(label); err == nil {
		return strconv.Itoa(n)
	}
	return label
}

func notFoundWarning(invoiceNumber, label string) Warning {
	return Warning{
		Code:             WarningInstallmentNotFound,
		Message:          "installment not found in ledger",
		InvoiceNumber:    invoiceNumber,
		InstallmentLabel: label,
	}
}

func postingOf(record *models.InstallmentRecord, amount decimal.Decimal, partial bool) Posting {
	return Posting{
		RecordID:         record.ID,
		InstallmentLabel: record.InstallmentLabel,
		Amount:           amount,
		AmountPaid:       record.AmountPaid,
		IsSettled:        record.IsSettled,
		Partial:          partial,
	}
}

func firstDate(dates ...models.Date) models.Date {
	for _, d := range dates {
		if !d.IsZero() {
			return d
		}
	}
	return models.Date{}
}
