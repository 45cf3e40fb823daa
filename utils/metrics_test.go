package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest(100*time.Millisecond, nil)
	m.RecordRequest(300*time.Millisecond, errors.New("boom"))
	m.RecordSchedule(13)
	m.RecordPayment(false, 2)
	m.RecordPayment(true, 0)
	m.RecordAssignment(4)
	m.RecordOverdue("BOG", 3, 1500.5)

	s := m.GetMetricsSnapshot()
	assert.Equal(t, int64(2), s["total_requests"])
	assert.Equal(t, int64(1), s["failed_requests"])
	assert.Equal(t, "200ms", s["average_latency"])
	assert.Equal(t, int64(1), s["schedules_generated"])
	assert.Equal(t, int64(13), s["installments_created"])
	assert.Equal(t, int64(1), s["payments_applied"])
	assert.Equal(t, int64(1), s["payments_reverted"])
	assert.Equal(t, int64(2), s["match_warnings"])
	assert.Equal(t, int64(4), s["assignments_applied"])
	assert.Equal(t, map[string]int{"BOG": 3}, s["overdue_count"])
	assert.Equal(t, int64(1), s["error_count"])
	assert.Equal(t, map[string]int64{"boom": 1}, s["error_types"])

	m.ResetMetrics()
	s = m.GetMetricsSnapshot()
	assert.Equal(t, int64(0), s["total_requests"])
	assert.Empty(t, s["overdue_count"])
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)
	assert.True(t, VerifyPassword("s3cret-pass", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret-pass", ""))
}
