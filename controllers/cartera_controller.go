package controllers

import (
	"encoding/json"
	"fmt"
	"goldenapp/middleware"
	"goldenapp/models"
	"goldenapp/services"
	"goldenapp/utils"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CarteraController обрабатывает запросы к картере города
type CarteraController struct {
	cartera *services.CarteraService
	exports *services.ExportService
	now     func() time.Time
}

// NewCarteraController создает новый экземпляр CarteraController
func NewCarteraController(cartera *services.CarteraService, exports *services.ExportService) *CarteraController {
	return &CarteraController{
		cartera: cartera,
		exports: exports,
		now:     time.Now,
	}
}

// GetLedger возвращает картеру города
func (c *CarteraController) GetLedger(w http.ResponseWriter, r *http.Request) {
	view, err := c.cartera.Ledger(r.Context(), mux.Vars(r)["city"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetSummary возвращает итоги картеры по должникам
func (c *CarteraController) GetSummary(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	view, err := c.cartera.Ledger(r.Context(), city)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cityCode": city,
		"holders":  services.Summarize(view.Records),
		"warnings": view.Warnings,
	})
}

// IssueInvoice строит график квот по выставленному счету
func (c *CarteraController) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	var dto services.IssueInvoiceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.CityCode = mux.Vars(r)["city"]

	result, err := c.cartera.IssueInvoice(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ApplyInflow зачисляет поступление
func (c *CarteraController) ApplyInflow(w http.ResponseWriter, r *http.Request) {
	var dto services.ApplyInflowDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.CityCode = mux.Vars(r)["city"]

	result, err := c.cartera.ApplyInflow(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// VoidInflow аннулирует поступление
func (c *CarteraController) VoidInflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := c.cartera.VoidInflow(r.Context(), vars["city"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if user, err := middleware.GetUserFromContext(r); err == nil {
		utils.WithTenant(vars["city"]).Infof("inflow %s voided by %s", vars["id"], user)
	}
	writeJSON(w, http.StatusOK, result)
}

// ApplyAssignment закрепляет счета за исполнителем
func (c *CarteraController) ApplyAssignment(w http.ResponseWriter, r *http.Request) {
	var dto services.AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.CityCode = mux.Vars(r)["city"]

	result, err := c.cartera.ApplyAssignment(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetOverdue возвращает просроченные квоты на дату asOf (по умолчанию сегодня)
func (c *CarteraController) GetOverdue(w http.ResponseWriter, r *http.Request) {
	asOf := models.DateOf(c.now())
	if value := r.URL.Query().Get("asOf"); value != "" {
		parsed, err := models.ParseDate(value)
		if err != nil || parsed.IsZero() {
			http.Error(w, "Invalid asOf date", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	overdue, err := c.cartera.Overdue(r.Context(), mux.Vars(r)["city"], asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overdue)
}

// ExportXLSX выгружает картеру в Excel
func (c *CarteraController) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	view, err := c.cartera.Ledger(r.Context(), city)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := c.exports.LedgerWorkbook(city, view.Records)
	if err != nil {
		writeError(w, err)
		return
	}
	c.attachment(w, xlsxContentType, fmt.Sprintf("cartera_%s.xlsx", city), data)
}

// ExportXML выгружает картеру в XML
func (c *CarteraController) ExportXML(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	view, err := c.cartera.Ledger(r.Context(), city)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := c.exports.LedgerXML(city, view.Records)
	if err != nil {
		writeError(w, err)
		return
	}
	c.attachment(w, "application/xml", fmt.Sprintf("cartera_%s.xml", city), data)
}

func (c *CarteraController) attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// RegisterRoutes регистрирует маршруты картеры
func (c *CarteraController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/cartera/{city}", c.GetLedger).Methods("GET")
	router.HandleFunc("/cartera/{city}/summary", c.GetSummary).Methods("GET")
	router.HandleFunc("/cartera/{city}/invoices", c.IssueInvoice).Methods("POST")
	router.HandleFunc("/cartera/{city}/inflows", c.ApplyInflow).Methods("POST")
	router.HandleFunc("/cartera/{city}/inflows/{id}/void", c.VoidInflow).Methods("POST")
	router.HandleFunc("/cartera/{city}/assignments", c.ApplyAssignment).Methods("POST")
	router.HandleFunc("/cartera/{city}/overdue", c.GetOverdue).Methods("GET")
	router.HandleFunc("/cartera/{city}/export.xlsx", c.ExportXLSX).Methods("GET")
	router.HandleFunc("/cartera/{city}/export.xml", c.ExportXML).Methods("GET")
}
