package services

import (
	"bytes"
	"fmt"
	"goldenapp/models"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet  = "Cartera"
	summarySheet = "Resumen"
)

var ledgerHeaders = []string{
	"Factura", "Contrato", "Titular", "Serie", "Tipo", "Cuota", "Emisión", "Vencimiento",
	"Valor cuota", "Valor pagado", "Saldo", "Fecha pago", "Estado", "Ejecutivo", "Año", "Mes",
}

var summaryHeaders = []string{"Titular", "Facturas", "Valor cuotas", "Valor pagado", "Saldo", "Pagadas", "Pendientes"}

// ExportService формирует отчеты по картере
type ExportService struct {
	now func() time.Time
}

// NewExportService создает новый экземпляр ExportService
func NewExportService() *ExportService {
	return &ExportService{now: time.Now}
}

// LedgerWorkbook строит книгу Excel: лист с записями картеры и лист с итогами по должникам
func (s *ExportService) LedgerWorkbook(cityCode string, records []models.InstallmentRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Переименовываем лист по умолчанию, чтобы не оставлять пустой Sheet1
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, ledgerSheet, 1, toRow(ledgerHeaders)); err != nil {
		return nil, err
	}

	for i, r := range records {
		row := []interface{}{
			r.InvoiceNumber,
			r.ContractNumber,
			r.HolderID,
			r.Series,
			r.Kind.Code(),
			r.InstallmentLabel,
			r.IssueDate.String(),
			r.DueDate.String(),
			r.AmountDue.InexactFloat64(),
			r.AmountPaid.InexactFloat64(),
			r.Outstanding().InexactFloat64(),
			r.PaidDate.String(),
			string(r.Status()),
			r.ExecutiveID,
			yearOrEmpty(r.AssignedYear),
			yearOrEmpty(r.AssignedMonth),
		}
		if err := writeRow(f, ledgerSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeRow(f, summarySheet, 1, toRow(summaryHeaders)); err != nil {
		return nil, err
	}
	for i, sum := range Summarize(records) {
		row := []interface{}{
			sum.HolderID,
			sum.Invoices,
			sum.AmountDue.InexactFloat64(),
			sum.AmountPaid.InexactFloat64(),
			sum.Outstanding.InexactFloat64(),
			sum.Settled,
			sum.Unsettled,
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Cartera " + cityCode,
		Created: s.now().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set workbook properties: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// LedgerXML строит XML-документ картеры для обмена с бухгалтерией
func (s *ExportService) LedgerXML(cityCode string, records []models.InstallmentRecord) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("cartera")
	root.CreateAttr("city", cityCode)
	root.CreateAttr("generated", s.now().Format(time.RFC3339))
	root.CreateAttr("count", strconv.Itoa(len(records)))

	for _, r := range records {
		el := root.CreateElement("installment")
		el.CreateAttr("id", r.ID)
		el.CreateAttr("kind", r.Kind.Code())
		el.CreateAttr("status", string(r.Status()))

		el.CreateElement("invoiceNumber").SetText(r.InvoiceNumber)
		el.CreateElement("contractNumber").SetText(r.ContractNumber)
		el.CreateElement("holderId").SetText(r.HolderID)
		el.CreateElement("series").SetText(r.Series)
		el.CreateElement("installmentLabel").SetText(r.InstallmentLabel)
		el.CreateElement("issueDate").SetText(r.IssueDate.String())
		el.CreateElement("dueDate").SetText(r.DueDate.String())
		el.CreateElement("amountDue").SetText(r.AmountDue.StringFixed(2))
		el.CreateElement("amountPaid").SetText(r.AmountPaid.StringFixed(2))
		if !r.PaidDate.IsZero() {
			el.CreateElement("paidDate").SetText(r.PaidDate.String())
		}
		if r.ExecutiveID != "" {
			assigned := el.CreateElement("assignment")
			assigned.CreateAttr("executiveId", r.ExecutiveID)
			assigned.CreateAttr("year", r.AssignedYear.String())
			assigned.CreateAttr("month", r.AssignedMonth.String())
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("write xml: %w", err)
	}
	return out, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func yearOrEmpty(v models.PeriodPart) interface{} {
	if v.IsZero() {
		return ""
	}
	return int(v)
}
