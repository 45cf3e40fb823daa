package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"goldenapp/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLLedgerStore хранит картеру каждого арендатора одной строкой таблицы ledger_blobs
type SQLLedgerStore struct {
	db *gorm.DB
}

// NewSQLLedgerStore создает новый экземпляр SQLLedgerStore
func NewSQLLedgerStore(db *gorm.DB) *SQLLedgerStore {
	return &SQLLedgerStore{db: db}
}

// Load читает картеру. Отсутствующий ключ означает пустую картеру.
func (s *SQLLedgerStore) Load(ctx context.Context, tenantKey string) ([]models.InstallmentRecord, error) {
	var blob models.LedgerBlob
	err := s.db.WithContext(ctx).First(&blob, "tenant_key = ?", tenantKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.InstallmentRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger blob: %w", err)
	}
	return decodeLedger([]byte(blob.Payload))
}

// Save заменяет картеру целиком
func (s *SQLLedgerStore) Save(ctx context.Context, tenantKey string, records []models.InstallmentRecord) error {
	payload, err := encodeLedger(records)
	if err != nil {
		return err
	}

	blob := models.LedgerBlob{Key: tenantKey, Payload: string(payload), UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&blob).Error
}

func encodeLedger(records []models.InstallmentRecord) ([]byte, error) {
	if records == nil {
		records = []models.InstallmentRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return payload, nil
}

// decodeLedger разбирает сохраненную картеру; все, что не является списком записей, считается испорченным
func decodeLedger(payload []byte) ([]models.InstallmentRecord, error) {
	if len(payload) == 0 {
		return []models.InstallmentRecord{}, nil
	}
	var records []models.InstallmentRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedLedger, err)
	}
	if records == nil {
		records = []models.InstallmentRecord{}
	}
	return records, nil
}
