package models

import (
	"time"
)

// Contract представляет договор, по которому выставляются счета
type Contract struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ContractNumber string    `gorm:"column:contract_number;not null;size:50;index:idx_contracts_city_number,unique" json:"contractNumber"`
	CityCode       string    `gorm:"column:city_code;not null;size:20;index:idx_contracts_city_number,unique" json:"cityCode"`
	Country        string    `gorm:"column:country;size:50" json:"country"`
	HolderID       string    `gorm:"column:holder_id;not null;size:50" json:"holderId"`
	PlanRef        string    `gorm:"column:plan_ref;size:100" json:"planRef"` // Код или название плана
	InitialDate    Date      `gorm:"column:initial_date" json:"initialDate"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"-"`
}

// TableName возвращает имя таблицы для модели Contract
func (Contract) TableName() string {
	return "contracts"
}
