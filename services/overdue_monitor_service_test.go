package services

import (
	"context"
	"errors"
	"goldenapp/models"
	"goldenapp/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOverdueSource struct {
	records map[string][]models.InstallmentRecord
	asOf    models.Date
}

func (s *stubOverdueSource) Overdue(_ context.Context, cityCode string, asOf models.Date) ([]models.InstallmentRecord, error) {
	s.asOf = asOf
	records, ok := s.records[cityCode]
	if !ok {
		return nil, errors.New("ledger unavailable")
	}
	return records, nil
}

func TestOverdueMonitorRunOnce(t *testing.T) {
	source := &stubOverdueSource{records: map[string][]models.InstallmentRecord{
		"BOG": {
			{AmountDue: dec("100"), AmountPaid: dec("40")},
			{AmountDue: dec("100")},
		},
		"MED": {},
	}}
	monitor := NewOverdueMonitorService(source, []string{"BOG", "MED", "CLO"}, "")
	monitor.metrics = utils.NewMetrics()
	monitor.now = func() time.Time { return time.Date(2024, time.June, 3, 23, 59, 0, 0, time.UTC) }

	reports := monitor.RunOnce(context.Background())

	require.Len(t, reports, 3)
	assert.Equal(t, OverdueReport{CityCode: "BOG", Count: 2, Amount: "160.00"}, reports[0])
	assert.Equal(t, OverdueReport{CityCode: "MED", Count: 0, Amount: "0.00"}, reports[1])
	assert.Equal(t, "CLO", reports[2].CityCode)
	assert.NotEmpty(t, reports[2].Err)
	assert.Equal(t, "2024-06-03", source.asOf.String())

	snapshot := monitor.metrics.GetMetricsSnapshot()
	assert.Equal(t, 2, snapshot["overdue_count"].(map[string]int)["BOG"])
	assert.Equal(t, 160.0, snapshot["overdue_amount"].(map[string]float64)["BOG"])
	assert.Equal(t, int64(1), snapshot["error_count"])
}

func TestOverdueMonitorStartStop(t *testing.T) {
	monitor := NewOverdueMonitorService(&stubOverdueSource{}, nil, "")
	assert.Equal(t, DefaultOverdueSchedule, monitor.schedule)

	require.NoError(t, monitor.Start())
	require.NoError(t, monitor.Start())
	monitor.Stop()
	monitor.Stop()

	bad := NewOverdueMonitorService(&stubOverdueSource{}, nil, "not a cron spec")
	assert.Error(t, bad.Start())
}
