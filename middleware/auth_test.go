package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, key []byte, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	key := []byte("secret")
	var seen string
	handler := AuthMiddleware(key)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := GetUserFromContext(r)
		require.NoError(t, err)
		seen = user
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + signedToken(t, []byte("other"), "admin", time.Now().Add(time.Hour)), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signedToken(t, key, "admin", time.Now().Add(-time.Hour)), want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + signedToken(t, key, "", time.Now().Add(time.Hour)), want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + signedToken(t, key, "admin", time.Now().Add(time.Hour)), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/cartera/BOG", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
	assert.Equal(t, "admin", seen)

	_, err := GetUserFromContext(httptest.NewRequest("GET", "/", nil))
	assert.Error(t, err)
}
