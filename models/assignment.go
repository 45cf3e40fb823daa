package models

// AssignmentAccount счет, закрепляемый за исполнителем
type AssignmentAccount struct {
	InvoiceNumber      string `json:"invoiceNumber"`
	PendingInstallment string `json:"pendingInstallment"`
}

// Assignment пакет закрепления счетов за продавцом на период
type Assignment struct {
	ExecutiveID   string              `json:"executiveId"`
	ExecutiveName string              `json:"executiveName"`
	Year          int                 `json:"year"`
	Month         int                 `json:"month"`
	Accounts      []AssignmentAccount `json:"accounts"`
}
