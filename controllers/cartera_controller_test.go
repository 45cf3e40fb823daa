package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"goldenapp/config"
	"goldenapp/database"
	"goldenapp/models"
	"goldenapp/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *database.MemoryLedgerStore) {
	t.Helper()

	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.Path = ":memory:"
	cfg.DB.Migrate = true
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := database.NewMemoryLedgerStore()
	cartera := services.NewCarteraService(ledger, db, db, db, nil)
	catalog := services.NewCatalogService(db, db)

	router := mux.NewRouter()
	NewCatalogController(catalog).RegisterRoutes(router)
	NewCarteraController(cartera, services.NewExportService()).RegisterRoutes(router)
	return router, ledger
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func seedCatalog(t *testing.T, router http.Handler) {
	t.Helper()

	rr := do(t, router, "POST", "/plans", map[string]interface{}{"codigo": "P12", "nombre": "Plan Doce", "numCuotas": "12"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, router, "POST", "/contracts", map[string]interface{}{
		"contractNumber": "K-1",
		"cityCode":       "BOG",
		"holderId":       "H1",
		"planRef":        "plan doce",
		"initialDate":    "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func issueInvoice(t *testing.T, router http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, router, "POST", "/cartera/BOG/invoices", map[string]interface{}{
		"invoiceNumber":    "F-100",
		"clientId":         "H1",
		"contractNumber":   "K-1",
		"amount":           1200000,
		"issueDate":        "2024-01-10",
		"firstPaymentDate": "2024-02-15",
	})
}

func TestInvoiceInflowAndVoidFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	seedCatalog(t, router)

	rr := issueInvoice(t, router)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var schedule services.ScheduleResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &schedule))
	assert.Len(t, schedule.Records, 13)

	rr = issueInvoice(t, router)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, "POST", "/cartera/BOG/inflows", map[string]interface{}{
		"invoiceNumber": "F-100",
		"holderId":      "H1",
		"date":          "2024-03-05",
		"kind":          "bank",
		"details":       []map[string]interface{}{{"installmentLabel": "3", "amountToApply": "50000"}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var applied services.InflowResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &applied))
	require.Len(t, applied.Postings, 1)
	assert.Equal(t, "3/12", applied.Postings[0].InstallmentLabel)

	rr = do(t, router, "GET", "/cartera/BOG", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var view services.LedgerView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.True(t, view.Records[3].AmountPaid.Equal(schedule.Records[3].AmountPaid.Add(applied.Postings[0].Amount)))

	rr = do(t, router, "POST", fmt.Sprintf("/cartera/MED/inflows/%s/void", applied.Inflow.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, "POST", fmt.Sprintf("/cartera/BOG/inflows/%s/void", applied.Inflow.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, router, "POST", fmt.Sprintf("/cartera/BOG/inflows/%s/void", applied.Inflow.ID), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestIssueInvoiceErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := issueInvoice(t, router)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, "POST", "/cartera/BOG/invoices", map[string]interface{}{"clientId": "H1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest("POST", "/cartera/BOG/invoices", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentsSummaryAndOverdue(t *testing.T) {
	router, _ := newTestRouter(t)
	seedCatalog(t, router)
	require.Equal(t, http.StatusCreated, issueInvoice(t, router).Code)

	rr := do(t, router, "POST", "/cartera/BOG/assignments", map[string]interface{}{
		"executiveId": "E7",
		"year":        2024,
		"month":       5,
		"accounts":    []map[string]string{{"invoiceNumber": "F-100", "pendingInstallment": "4"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"updated":1,"unmatched":0}`, rr.Body.String())

	rr = do(t, router, "GET", "/cartera/BOG/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"holderId":"H1"`)

	rr = do(t, router, "GET", "/cartera/BOG/overdue?asOf=2024-04-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var overdue []models.InstallmentRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &overdue))
	assert.Len(t, overdue, 3)

	rr = do(t, router, "GET", "/cartera/BOG/overdue?asOf=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLedgerMalformedIsWarning(t *testing.T) {
	router, ledger := newTestRouter(t)
	ledger.SetRaw(services.TenantKey("BOG"), []byte(`{"broken":true}`))

	rr := do(t, router, "GET", "/cartera/BOG", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var view services.LedgerView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Empty(t, view.Records)
	require.Len(t, view.Warnings, 1)
	assert.Equal(t, services.WarningMalformedLedger, view.Warnings[0].Code)
}

func TestExports(t *testing.T) {
	router, _ := newTestRouter(t)
	seedCatalog(t, router)
	require.Equal(t, http.StatusCreated, issueInvoice(t, router).Code)

	rr := do(t, router, "GET", "/cartera/BOG/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "cartera_BOG.xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))

	rr = do(t, router, "GET", "/cartera/BOG/export.xml", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<cartera city="BOG"`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", services.ErrValidation), http.StatusBadRequest},
		{&services.LookupError{Kind: services.ErrPlanNotFound, Key: "P"}, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", services.ErrInflowNotFound), http.StatusNotFound},
		{services.ErrScheduleExists, http.StatusConflict},
		{services.ErrInflowAlreadyVoided, http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
