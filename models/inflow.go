package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InflowKind тип поступления
type InflowKind string

const (
	InflowKindCash InflowKind = "cash" // Касса
	InflowKindBank InflowKind = "bank" // Банк
)

// InflowDetail одна строка детального распределения поступления по квотам
type InflowDetail struct {
	InstallmentLabel string          `json:"installmentLabel"`
	AmountToApply    decimal.Decimal `json:"amountToApply"`
	IsPartial        bool            `json:"isPartial"`
}

// Inflow представляет поступление денег (касса или банк) по счету.
// Если Details пуст, используется устаревший формат: InstallmentField + Amount.
type Inflow struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	CityCode         string          `gorm:"column:city_code;not null;size:20;index" json:"cityCode"`
	Country          string          `gorm:"column:country;size:50" json:"country"`
	Kind             InflowKind      `gorm:"column:kind;type:varchar(10);not null;default:'cash'" json:"kind"`
	InvoiceNumber    string          `gorm:"column:invoice_number;not null;size:50;index" json:"invoiceNumber"`
	HolderID         string          `gorm:"column:holder_id;not null;size:50" json:"holderId"`
	Date             Date            `gorm:"column:date;not null" json:"date"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null;default:0" json:"amount"`
	InstallmentField string          `gorm:"column:installment_field;size:255" json:"installmentField"`
	Details          []InflowDetail  `gorm:"column:details;type:text;serializer:json" json:"details"`
	NotifyEmail      string          `gorm:"column:notify_email;size:100" json:"notifyEmail,omitempty"`
	Voided           bool            `gorm:"column:voided;not null;default:false" json:"voided"`
	VoidedAt         *time.Time      `gorm:"column:voided_at" json:"voidedAt,omitempty"`
	CreatedAt        time.Time       `gorm:"column:created_at" json:"createdAt"`
}

// TableName возвращает имя таблицы для модели Inflow
func (Inflow) TableName() string {
	return "inflows"
}

// IsDetailed сообщает, задано ли явное распределение по квотам
func (i Inflow) IsDetailed() bool {
	return len(i.Details) > 0
}
