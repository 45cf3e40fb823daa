package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики картеры
	SchedulesGenerated  int64
	InstallmentsCreated int64
	PaymentsApplied     int64
	PaymentsReverted    int64
	AssignmentsApplied  int64
	MatchWarnings       int64
	LastLedgerWrite     time.Time

	// Просрочка по городам после последнего прохода монитора
	OverdueCount  map[string]int
	OverdueAmount map[string]float64
	LastOverdueAt time.Time

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// NewMetrics создает пустой набор метрик
func NewMetrics() *Metrics {
	return &Metrics{
		OverdueCount:  make(map[string]int),
		OverdueAmount: make(map[string]float64),
		ErrorTypes:    make(map[string]int64),
	}
}

// GetMetrics возвращает общий экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if err != nil {
		m.FailedRequests++
		m.recordErrorLocked(err)
	}
}

// RecordSchedule записывает построенный график
func (m *Metrics) RecordSchedule(installments int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SchedulesGenerated++
	m.InstallmentsCreated += int64(installments)
	m.LastLedgerWrite = time.Now()
}

// RecordPayment записывает применение (reverted=false) или отмену поступления
func (m *Metrics) RecordPayment(reverted bool, warnings int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reverted {
		m.PaymentsReverted++
	} else {
		m.PaymentsApplied++
	}
	m.MatchWarnings += int64(warnings)
	m.LastLedgerWrite = time.Now()
}

// RecordAssignment записывает число обновленных записей
func (m *Metrics) RecordAssignment(updated int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AssignmentsApplied += int64(updated)
	m.LastLedgerWrite = time.Now()
}

// RecordOverdue записывает результат прохода монитора просрочки по городу
func (m *Metrics) RecordOverdue(cityCode string, count int, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OverdueCount[cityCode] = count
	m.OverdueAmount[cityCode] = amount
	m.LastOverdueAt = time.Now()
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overdueCount := make(map[string]int, len(m.OverdueCount))
	for k, v := range m.OverdueCount {
		overdueCount[k] = v
	}
	overdueAmount := make(map[string]float64, len(m.OverdueAmount))
	for k, v := range m.OverdueAmount {
		overdueAmount[k] = v
	}
	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_requests":       m.TotalRequests,
		"failed_requests":      m.FailedRequests,
		"average_latency":      m.AverageLatency.String(),
		"schedules_generated":  m.SchedulesGenerated,
		"installments_created": m.InstallmentsCreated,
		"payments_applied":     m.PaymentsApplied,
		"payments_reverted":    m.PaymentsReverted,
		"assignments_applied":  m.AssignmentsApplied,
		"match_warnings":       m.MatchWarnings,
		"last_ledger_write":    m.LastLedgerWrite,
		"overdue_count":        overdueCount,
		"overdue_amount":       overdueAmount,
		"last_overdue_at":      m.LastOverdueAt,
		"error_count":          m.ErrorCount,
		"last_error_time":      m.LastErrorTime,
		"error_types":          errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := NewMetrics()
	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.SchedulesGenerated = 0
	m.InstallmentsCreated = 0
	m.PaymentsApplied = 0
	m.PaymentsReverted = 0
	m.AssignmentsApplied = 0
	m.MatchWarnings = 0
	m.OverdueCount = fresh.OverdueCount
	m.OverdueAmount = fresh.OverdueAmount
	m.ErrorCount = 0
	m.ErrorTypes = fresh.ErrorTypes
}
