package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PeriodPart год или месяц закрепления записи за исполнителем.
// Ноль означает, что период не задан; в JSON он пишется пустой строкой,
// как в ранее сохраненных данных.
type PeriodPart int

// IsZero сообщает, что период не задан
func (p PeriodPart) IsZero() bool {
	return p == 0
}

func (p PeriodPart) String() string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(int(p))
}

func (p PeriodPart) MarshalJSON() ([]byte, error) {
	if p == 0 {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(int(p))), nil
}

// UnmarshalJSON принимает число, строку с числом, пустую строку и null
func (p *PeriodPart) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("assignment period: %w", err)
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*p = 0
		return nil
	}

	if v, err := strconv.Atoi(raw); err == nil {
		*p = PeriodPart(v)
		return nil
	}
	// Старые формы сохраняли "2024.0"
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return fmt.Errorf("assignment period %q is not a whole number", raw)
	}
	*p = PeriodPart(int(f))
	return nil
}
