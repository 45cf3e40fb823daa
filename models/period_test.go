package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodPartUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    PeriodPart
		wantErr bool
	}{
		{in: `2024`, want: 2024},
		{in: `"2024"`, want: 2024},
		{in: `" 05 "`, want: 5},
		{in: `""`, want: 0},
		{in: `null`, want: 0},
		{in: `2024.0`, want: 2024},
		{in: `"mayo"`, wantErr: true},
		{in: `5.5`, wantErr: true},
	}

	for _, tt := range tests {
		var p PeriodPart
		err := json.Unmarshal([]byte(tt.in), &p)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, p, tt.in)
	}
}

func TestPeriodPartMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		Year  PeriodPart `json:"year"`
		Month PeriodPart `json:"month"`
	}{Year: 2024})
	require.NoError(t, err)
	assert.JSONEq(t, `{"year": 2024, "month": ""}`, string(out))
}

func TestInstallmentRecordAcceptsLegacyEmptyPeriod(t *testing.T) {
	var records []InstallmentRecord
	err := json.Unmarshal([]byte(`[
		{"id": "r1", "kind": "CR", "installmentLabel": "1/12", "amountDue": 100, "amountPaid": 0,
		 "paidDate": null, "executiveId": "", "assignedYear": "", "assignedMonth": ""},
		{"id": "r2", "kind": "CR", "installmentLabel": "2/12", "amountDue": 100, "amountPaid": 0,
		 "paidDate": null, "executiveId": "E7", "assignedYear": "2024", "assignedMonth": 5}
	]`), &records)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].AssignedYear.IsZero())
	assert.Equal(t, PeriodPart(2024), records[1].AssignedYear)
	assert.Equal(t, PeriodPart(5), records[1].AssignedMonth)
}
