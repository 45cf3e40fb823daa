package models

import (
	"time"
)

// DefaultInstallmentCount число квот, если в плане оно не указано
const DefaultInstallmentCount = 12

// MaxInstallmentCount наибольшее число квот в плане (50 лет помесячно)
const MaxInstallmentCount = 600

// Plan представляет план рассрочки.
// InstallmentCount уже нормализован из устаревших синонимичных полей.
type Plan struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code             string    `gorm:"column:code;unique;not null;size:50" json:"code"`
	Name             string    `gorm:"column:name;not null;size:100" json:"name"`
	InstallmentCount int       `gorm:"column:installment_count;not null;default:0" json:"installmentCount"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"-"`
}

// TableName возвращает имя таблицы для модели Plan
func (Plan) TableName() string {
	return "plans"
}
