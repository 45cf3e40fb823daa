package controllers

import (
	"encoding/json"
	"goldenapp/config"
	"goldenapp/utils"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// AuthController выдает токены оператору картеры
type AuthController struct {
	validate *validator.Validate
	config   *config.Config
	now      func() time.Time
}

type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewAuthController(cfg *config.Config) *AuthController {
	return &AuthController{
		validate: validator.New(),
		config:   cfg,
		now:      time.Now,
	}
}

// SignIn проверяет учетные данные администратора и выдает JWT
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация запроса
	if err := c.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Без настроенного хеша вход закрыт
	if req.Username != c.config.Auth.AdminUser || !utils.VerifyPassword(req.Password, c.config.Auth.AdminPasswordHash) {
		utils.LogWarn("failed sign in for %s", req.Username)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Создаем JWT токен
	now := c.now()
	expirationTime := now.Add(time.Duration(c.config.JWT.ExpiresIn) * time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   req.Username,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(c.config.JWT.SecretKey))
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{Token: tokenString, ExpiresAt: expirationTime})
}

// GetJWTKey возвращает ключ для JWT
func (c *AuthController) GetJWTKey() string {
	return c.config.JWT.SecretKey
}
