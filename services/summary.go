package services

import (
	"goldenapp/models"
	"sort"

	"github.com/shopspring/decimal"
)

// HolderSummary итоги картеры по одному должнику
type HolderSummary struct {
	HolderID    string          `json:"holderId"`
	Invoices    int             `json:"invoices"`
	AmountDue   decimal.Decimal `json:"amountDue"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Settled     int             `json:"settled"`
	Unsettled   int             `json:"unsettled"`
}

// Summarize считает итоги по должникам, отсортированные по HolderID
func Summarize(records []models.InstallmentRecord) []HolderSummary {
	byHolder := make(map[string]*HolderSummary)
	invoices := make(map[string]map[string]struct{})

	for _, r := range records {
		s, ok := byHolder[r.HolderID]
		if !ok {
			s = &HolderSummary{HolderID: r.HolderID}
			byHolder[r.HolderID] = s
			invoices[r.HolderID] = make(map[string]struct{})
		}
		invoices[r.HolderID][r.InvoiceNumber] = struct{}{}

		s.AmountDue = s.AmountDue.Add(r.AmountDue)
		s.AmountPaid = s.AmountPaid.Add(r.AmountPaid)
		s.Outstanding = s.Outstanding.Add(r.Outstanding())
		if r.IsSettled {
			s.Settled++
		} else {
			s.Unsettled++
		}
	}

	summaries := make([]HolderSummary, 0, len(byHolder))
	for holder, s := range byHolder {
		s.Invoices = len(invoices[holder])
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].HolderID < summaries[j].HolderID
	})
	return summaries
}

// decimalSum суммирует непогашенный остаток записей
func decimalSum(records []models.InstallmentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Outstanding())
	}
	return total
}
