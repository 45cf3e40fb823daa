package database

import (
	"context"
	"goldenapp/models"
	"sync"
)

// MemoryLedgerStore хранит картеру в памяти процесса. Используется для локального запуска и тестов.
type MemoryLedgerStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryLedgerStore создает новый экземпляр MemoryLedgerStore
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{blobs: make(map[string][]byte)}
}

func (s *MemoryLedgerStore) Load(_ context.Context, tenantKey string) ([]models.InstallmentRecord, error) {
	s.mu.RLock()
	payload := s.blobs[tenantKey]
	s.mu.RUnlock()
	return decodeLedger(payload)
}

func (s *MemoryLedgerStore) Save(_ context.Context, tenantKey string, records []models.InstallmentRecord) error {
	payload, err := encodeLedger(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blobs[tenantKey] = payload
	s.mu.Unlock()
	return nil
}

// SetRaw записывает произвольные данные под ключом
func (s *MemoryLedgerStore) SetRaw(tenantKey string, payload []byte) {
	s.mu.Lock()
	s.blobs[tenantKey] = payload
	s.mu.Unlock()
}
