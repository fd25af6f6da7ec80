package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TimeLayout формат времени во всех внешних контрактах (UTC)
const TimeLayout = "2006-01-02 15:04:05"

// Pair валютная пара
type Pair string

const (
	PairUSDJPY Pair = "USDJPY"
)

// IsValid проверяет, поддерживается ли валютная пара
func (p Pair) IsValid() bool {
	return slices.Contains(SupportedPairs(), p)
}

// SupportedPairs возвращает список поддерживаемых пар
func SupportedPairs() []Pair {
	return []Pair{PairUSDJPY}
}

// RateTime принимает "2006-01-02 15:04:05" и RFC 3339, всегда отдает TimeLayout в UTC
type RateTime struct {
	time.Time
}

func ParseRateTime(s string) (RateTime, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(TimeLayout, s, time.UTC); err == nil {
		return RateTime{t.UTC()}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return RateTime{}, fmt.Errorf("unsupported time %q", s)
	}
	return RateTime{t.UTC()}, nil
}

func (t *RateTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("time must be a string, got %s", s)
	}
	parsed, err := ParseRateTime(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t RateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(TimeLayout) + `"`), nil
}

// Rate котировка, пришедшая через шлюз
type Rate struct {
	Time  RateTime `json:"time" swaggertype:"string" example:"2022-05-01 12:00:00"`
	Value float64  `json:"value" example:"130.123"`
}

// RateForTraining строка таблицы rates_for_training
type RateForTraining struct {
	Pair       Pair      `db:"pair"`
	RecordedAt time.Time `db:"recorded_at"`
	Rate       float64   `db:"rate"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// PostRatesResponse ответ шлюза
type PostRatesResponse struct {
	Count int `json:"count" example:"2"`
}
