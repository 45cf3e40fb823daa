package main

import (
	"bytes"
	"context"
	"encoding/json"
	"goldenapp/config"
	"goldenapp/controllers"
	"goldenapp/database"
	"goldenapp/services"
	"goldenapp/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*mux.Router, *database.Database) {
	t.Helper()

	hash, err := utils.HashPassword("cartera-admin")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.Path = ":memory:"
	cfg.DB.Migrate = true
	cfg.Ledger.Backend = "memory"
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.ExpiresIn = 1
	cfg.Auth.AdminUser = "admin"
	cfg.Auth.AdminPasswordHash = hash

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger, closeLedger, err := newLedgerStore(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(closeLedger)

	cartera := services.NewCarteraService(ledger, db, db, db, services.NewEmailService(cfg))
	router := newAPIRouter(
		controllers.NewAuthController(cfg),
		controllers.NewCarteraController(cartera, services.NewExportService()),
		controllers.NewCatalogController(services.NewCatalogService(db, db)),
	)
	return router, db
}

func request(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func signIn(t *testing.T, router http.Handler) string {
	t.Helper()

	rr := request(t, router, "POST", "/api/auth/signIn", "", map[string]string{"username": "admin", "password": "cartera-admin"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp controllers.SignInResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignIn(t *testing.T) {
	router, _ := newTestApp(t)

	rr := request(t, router, "POST", "/api/auth/signIn", "", map[string]string{"username": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = request(t, router, "POST", "/api/auth/signIn", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.NotEmpty(t, signIn(t, router))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestApp(t)

	rr := request(t, router, "GET", "/api/cartera/BOG", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = request(t, router, "GET", "/api/cartera/BOG", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCarteraEndToEnd(t *testing.T) {
	router, _ := newTestApp(t)
	token := signIn(t, router)

	rr := request(t, router, "POST", "/api/plans", token, map[string]interface{}{"codigo": "P6", "nombre": "Seis", "cuotas": 6})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, router, "POST", "/api/contracts", token, map[string]interface{}{
		"contractNumber": "K-9", "cityCode": "BOG", "holderId": "H1", "planRef": "P6",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, router, "POST", "/api/cartera/BOG/invoices", token, map[string]interface{}{
		"invoiceNumber": "F-1", "clientId": "H1", "contractNumber": "K-9", "amount": "600",
		"issueDate": "2024-01-10", "firstPaymentDate": "2024-02-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, router, "POST", "/api/cartera/BOG/inflows", token, map[string]interface{}{
		"invoiceNumber": "F-1", "holderId": "H1", "date": "2024-02-01", "amount": "300", "installmentField": "0,1,2",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, router, "GET", "/api/cartera/BOG/summary", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary struct {
		Holders []services.HolderSummary `json:"holders"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Len(t, summary.Holders, 1)
	assert.Equal(t, 3, summary.Holders[0].Settled)
	assert.Equal(t, 4, summary.Holders[0].Unsettled)
	assert.Equal(t, "400", summary.Holders[0].Outstanding.String())
}

func TestOpsRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, db := newTestApp(t)
	router := newOpsRouter(db, utils.NewRateLimiter(100, time.Minute))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"ok"`)
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Remaining"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Contains(t, snapshot, "payments_applied")
	assert.Contains(t, snapshot, "overdue_count")
}
