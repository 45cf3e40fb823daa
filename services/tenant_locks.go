package services

import (
	"strings"
	"sync"
)

// TenantKey ключ картеры города в хранилище
func TenantKey(cityCode string) string {
	return "cartera_" + strings.TrimSpace(cityCode)
}

// tenantLocks выдает по мьютексу на арендатора.
// Каждая операция держит его на всем цикле чтение-изменение-запись картеры.
type tenantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTenantLocks() *tenantLocks {
	return &tenantLocks{locks: make(map[string]*sync.Mutex)}
}

// lock захватывает мьютекс арендатора и возвращает функцию освобождения
func (l *tenantLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
