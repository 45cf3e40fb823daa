package models

import (
	"time"
)

// LedgerBlob хранит всю картеру арендатора одним JSON-документом под ключом
type LedgerBlob struct {
	Key       string    `gorm:"column:tenant_key;primaryKey;size:100"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName возвращает имя таблицы для модели LedgerBlob
func (LedgerBlob) TableName() string {
	return "ledger_blobs"
}
