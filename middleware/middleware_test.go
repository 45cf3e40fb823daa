package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"goldenapp/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpsEngine(limiter *utils.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Logger(), Recovery(), RateLimit(limiter), CORSMiddleware())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	return router
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.7:5555"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRateLimitHeadersAndRejection(t *testing.T) {
	router := newOpsEngine(utils.NewRateLimiter(2, time.Minute))

	rr := serve(router, "GET", "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))

	reset, err := strconv.ParseInt(rr.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, reset, time.Now().Unix())

	rr = serve(router, "GET", "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = serve(router, "GET", "/health")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "Too many requests")
}

func TestCORSPreflight(t *testing.T) {
	router := newOpsEngine(utils.NewRateLimiter(10, time.Minute))

	rr := serve(router, "OPTIONS", "/health")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rr.Body.String())

	rr = serve(router, "GET", "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryCountsFailedRequest(t *testing.T) {
	metrics := utils.GetMetrics()
	metrics.ResetMetrics()
	router := newOpsEngine(utils.NewRateLimiter(10, time.Minute))

	rr := serve(router, "GET", "/boom")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")

	snapshot := metrics.GetMetricsSnapshot()
	assert.EqualValues(t, 1, snapshot["total_requests"])
	assert.EqualValues(t, 1, snapshot["failed_requests"])
}
