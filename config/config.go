package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	Ops struct {
		Port      int // Порт служебного сервера /health и /metrics
		RateLimit int // Запросов в минуту с одного адреса
	}
	DB struct {
		Driver   string // postgres или sqlite
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		Path     string // Файл базы для sqlite
		Migrate  bool
	}
	Ledger struct {
		Backend       string // sql, redis или memory
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	Auth struct {
		AdminUser         string
		AdminPasswordHash string // bcrypt
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Log struct {
		Level  string
		Format string
		Dir    string
	}
	Cartera struct {
		Cities      []string // Города для проверки просрочки
		OverdueCron string
	}
}

var defaults = map[string]interface{}{
	"SERVER_PORT":          8080,
	"OPS_PORT":             9090,
	"OPS_RATE_LIMIT":       100,
	"DB_DRIVER":            "postgres",
	"DB_HOST":              "localhost",
	"DB_PORT":              5432,
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME":              "cartera_db",
	"DB_PATH":              "cartera.db",
	"DB_MIGRATE":           true,
	"LEDGER_BACKEND":       "sql",
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"JWT_SECRET_KEY":       "your-secret-key-here",
	"JWT_EXPIRES_IN":       24,
	"ADMIN_USER":           "admin",
	"ADMIN_PASSWORD_HASH":  "",
	"SMTP_HOST":            "",
	"SMTP_PORT":            587,
	"SMTP_USERNAME":        "",
	"SMTP_PASSWORD":        "",
	"SMTP_FROM":            "cartera@goldenapp.local",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
	"LOG_DIR":              "",
	"CARTERA_CITIES":       "",
	"CARTERA_OVERDUE_CRON": "0 7 * * *",
}

// NewConfig создает новый экземпляр конфигурации.
// Значения берутся из переменных окружения; CONFIG_FILE указывает необязательный файл с теми же ключами.
func NewConfig() (*Config, error) {
	return Load(viper.New())
}

// Load читает конфигурацию из переданного экземпляра viper
func Load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", file, err)
		}
	}

	cfg := &Config{}

	// Настройки серверов
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Ops.Port = v.GetInt("OPS_PORT")
	cfg.Ops.RateLimit = v.GetInt("OPS_RATE_LIMIT")

	// Настройки базы данных
	cfg.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetInt("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")
	cfg.DB.Path = v.GetString("DB_PATH")
	cfg.DB.Migrate = v.GetBool("DB_MIGRATE")

	// Хранилище картеры
	cfg.Ledger.Backend = strings.ToLower(v.GetString("LEDGER_BACKEND"))
	cfg.Ledger.RedisAddr = v.GetString("REDIS_ADDR")
	cfg.Ledger.RedisPassword = v.GetString("REDIS_PASSWORD")
	cfg.Ledger.RedisDB = v.GetInt("REDIS_DB")

	// Настройки JWT
	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.JWT.ExpiresIn = v.GetInt("JWT_EXPIRES_IN")
	cfg.Auth.AdminUser = v.GetString("ADMIN_USER")
	cfg.Auth.AdminPasswordHash = v.GetString("ADMIN_PASSWORD_HASH")

	// Настройки SMTP
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")

	// Логирование
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Log.Dir = v.GetString("LOG_DIR")

	// Картера
	cfg.Cartera.Cities = splitList(v.GetString("CARTERA_CITIES"))
	cfg.Cartera.OverdueCron = v.GetString("CARTERA_OVERDUE_CRON")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("неизвестный драйвер базы данных: %q", c.DB.Driver)
	}
	switch c.Ledger.Backend {
	case "sql", "redis", "memory":
	default:
		return fmt.Errorf("неизвестное хранилище картеры: %q", c.Ledger.Backend)
	}
	if c.Server.Port <= 0 || c.Ops.Port <= 0 {
		return fmt.Errorf("неверный формат порта сервера")
	}
	if c.Ops.RateLimit <= 0 {
		return fmt.Errorf("неверный лимит запросов служебного сервера: %d", c.Ops.RateLimit)
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("неверный формат времени жизни JWT: %d", c.JWT.ExpiresIn)
	}
	return nil
}

// splitList разбирает список через запятую, пропуская пустые элементы
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
