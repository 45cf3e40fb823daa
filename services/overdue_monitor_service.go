package services

import (
	"context"
	"fmt"
	"goldenapp/models"
	"goldenapp/utils"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultOverdueSchedule ежедневная проверка в 7 утра
const DefaultOverdueSchedule = "0 7 * * *"

// OverdueReport результат проверки просрочки по одному городу
type OverdueReport struct {
	CityCode string `json:"cityCode"`
	Count    int    `json:"count"`
	Amount   string `json:"amount"`
	Err      string `json:"error,omitempty"`
}

// overdueSource отдает просроченные квоты города
type overdueSource interface {
	Overdue(ctx context.Context, cityCode string, asOf models.Date) ([]models.InstallmentRecord, error)
}

// OverdueMonitorService периодически считает просроченные квоты по городам
type OverdueMonitorService struct {
	source   overdueSource
	cities   []string
	schedule string
	cron     *cron.Cron
	metrics  *utils.Metrics
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// NewOverdueMonitorService создает новый экземпляр OverdueMonitorService
func NewOverdueMonitorService(source overdueSource, cities []string, schedule string) *OverdueMonitorService {
	if schedule == "" {
		schedule = DefaultOverdueSchedule
	}
	return &OverdueMonitorService{
		source:   source,
		cities:   cities,
		schedule: schedule,
		cron:     cron.New(),
		metrics:  utils.GetMetrics(),
		now:      time.Now,
	}
}

// Start запускает планировщик проверки просрочки
func (s *OverdueMonitorService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid overdue schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true
	utils.LogInfo("overdue monitor started (%s) for %d cities", s.schedule, len(s.cities))
	return nil
}

// Stop останавливает планировщик и ждет завершения текущей проверки
func (s *OverdueMonitorService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// RunOnce проверяет все настроенные города. Ошибка одного города не прерывает остальные.
func (s *OverdueMonitorService) RunOnce(ctx context.Context) []OverdueReport {
	asOf := models.DateOf(s.now())
	reports := make([]OverdueReport, 0, len(s.cities))

	for _, city := range s.cities {
		report := OverdueReport{CityCode: city, Amount: "0.00"}

		overdue, err := s.source.Overdue(ctx, city, asOf)
		if err != nil {
			utils.LogError("overdue check for %s failed: %v", city, err)
			s.metrics.RecordError(err)
			report.Err = err.Error()
			reports = append(reports, report)
			continue
		}

		total := decimalSum(overdue)
		report.Count = len(overdue)
		report.Amount = total.StringFixed(2)
		s.metrics.RecordOverdue(city, report.Count, total.InexactFloat64())

		if report.Count > 0 {
			utils.WithTenant(city).Warnf("%d overdue installments, outstanding %s", report.Count, report.Amount)
		}
		reports = append(reports, report)
	}
	return reports
}
