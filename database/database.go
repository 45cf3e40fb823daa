package database

import (
	"context"
	"errors"
	"fmt"
	"goldenapp/config"
	"goldenapp/models"
	"goldenapp/utils"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// NewDatabase создает новое подключение к базе данных без миграций
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := open(cfg, logger.Silent)
	if err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// GetDB возвращает экземпляр GORM
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect устанавливает соединение с базой данных и выполняет миграции
func Connect(cfg *config.Config) (*Database, error) {
	level := logger.Warn
	if strings.EqualFold(cfg.Log.Level, "debug") {
		level = logger.Info
	}

	db, err := open(cfg, level)
	if err != nil {
		return nil, err
	}

	if cfg.DB.Migrate {
		// SQL миграции есть только для postgres
		if cfg.DB.Driver == "postgres" {
			if err := runMigrations(cfg); err != nil {
				return nil, fmt.Errorf("ошибка выполнения SQL миграций: %v", err)
			}
		}

		// Выполняем автоматическую миграцию моделей
		if err := autoMigrate(db); err != nil {
			return nil, fmt.Errorf("ошибка автоматической миграции моделей: %v", err)
		}
	}

	return &Database{DB: db}, nil
}

// open открывает gorm с выбранным драйвером и настраивает пул соединений
func open(cfg *config.Config, level logger.LogLevel) (*gorm.DB, error) {
	// Логгер gorm пишет через общий logrus
	gormLogger := logger.New(
		utils.Log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.Path)
	default:
		dialector = postgres.Open(postgresDSN(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %v", err)
	}

	if cfg.DB.Driver == "sqlite" {
		// Одна запись в sqlite за раз; :memory: к тому же живет в одном соединении
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

func postgresDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)
}

// runMigrations выполняет SQL миграции
func runMigrations(cfg *config.Config) error {
	// Формируем URL для миграций
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	// Создаем экземпляр миграции
	m, err := migrate.New(
		"file://migrations",
		dsn,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %v", err)
	}
	defer m.Close()

	// Выполняем миграции
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка выполнения миграций: %v", err)
	}

	return nil
}

// autoMigrate выполняет автоматическую миграцию моделей
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Plan{},
		&models.Contract{},
		&models.Inflow{},
		&models.LedgerBlob{},
	)
	if err != nil {
		return fmt.Errorf("ошибка автоматической миграции: %v", err)
	}

	return nil
}

// Методы для работы с договорами

// CreateContract сохраняет договор; пустой ID заполняется UUID
func (d *Database) CreateContract(ctx context.Context, contract *models.Contract) error {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	return d.DB.WithContext(ctx).Create(contract).Error
}

// FindContract ищет договор города по номеру или ID
func (d *Database) FindContract(ctx context.Context, numberOrID, cityCode string) (*models.Contract, error) {
	var contract models.Contract
	err := d.DB.WithContext(ctx).
		Where("city_code = ? AND (contract_number = ? OR id = ?)", cityCode, numberOrID, numberOrID).
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// Методы для работы с планами

// FindPlan ищет план по коду или названию без учета регистра
func (d *Database) FindPlan(ctx context.Context, codeOrName string) (*models.Plan, error) {
	var plan models.Plan
	err := d.DB.WithContext(ctx).
		Where("LOWER(code) = LOWER(?) OR LOWER(name) = LOWER(?)", codeOrName, codeOrName).
		Order("id").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpsertPlan создает план или обновляет существующий с тем же кодом
func (d *Database) UpsertPlan(ctx context.Context, plan *models.Plan) error {
	return d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "installment_count", "updated_at"}),
	}).Create(plan).Error
}

// Методы для работы с поступлениями

func (d *Database) CreateInflow(ctx context.Context, inflow *models.Inflow) error {
	return d.DB.WithContext(ctx).Create(inflow).Error
}

func (d *Database) FindInflow(ctx context.Context, id string) (*models.Inflow, error) {
	var inflow models.Inflow
	err := d.DB.WithContext(ctx).First(&inflow, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inflow, nil
}

// MarkInflowVoided помечает поступление аннулированным. Повторная отметка не выполняется.
func (d *Database) MarkInflowVoided(ctx context.Context, id string, at time.Time) error {
	res := d.DB.WithContext(ctx).Model(&models.Inflow{}).
		Where("id = ? AND voided = ?", id, false).
		Updates(map[string]interface{}{"voided": true, "voided_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrInflowAlreadyVoided, id)
	}
	return nil
}

// UnmarkInflowVoided снимает отметку об аннулировании, если откат картеры не удался
func (d *Database) UnmarkInflowVoided(ctx context.Context, id string) error {
	return d.DB.WithContext(ctx).Model(&models.Inflow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"voided": false, "voided_at": nil}).Error
}
