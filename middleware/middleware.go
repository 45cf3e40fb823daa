package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"goldenapp/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit ограничивает частоту запросов к служебному серверу по IP клиента
func RateLimit(limiter *utils.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !limiter.Allow(clientIP) {
			reset := limiter.ResetTime(clientIP)
			c.Header("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"reset": reset,
			})
			return
		}

		// Добавляем заголовки с информацией о лимитах
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(clientIP)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(limiter.ResetTime(clientIP).Unix(), 10))

		c.Next()
	}
}

// Logger пишет запрос служебного сервера в общий логгер и в метрики
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime)
		status := c.Writer.Status()

		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		} else if status >= http.StatusInternalServerError {
			err = fmt.Errorf("ops %s %s: status %d", c.Request.Method, c.Request.URL.Path, status)
		}
		utils.GetMetrics().RecordRequest(duration, err)

		entry := utils.Log.WithFields(logrus.Fields{
			"server":   "ops",
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": duration,
		})
		if err != nil {
			entry.WithError(err).Error("request failed")
			return
		}
		entry.Debug("request")
	}
}

// Recovery перехватывает панику обработчика и отвечает 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				utils.LogError("Panic recovered: %v", r)
				_ = c.Error(fmt.Errorf("panic: %v", r))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}

// CORSMiddleware открывает служебный сервер только для чтения
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Accept, Cache-Control, Content-Type, Origin, X-Requested-With")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
