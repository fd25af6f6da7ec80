package models

import (
	"time"

	"github.com/google/uuid"
)

// ForecastEventStatus итог вычисления прогноза
type ForecastEventStatus string

const (
	ForecastEventCompleted ForecastEventStatus = "completed"
	ForecastEventFailed    ForecastEventStatus = "failed"
)

// событие о завершении (или ошибке) прогноза
type ForecastEvent struct {
	RateID       uuid.UUID           `json:"rate_id"`           // ID истории курсов
	Pair         Pair                `json:"pair"`              // Валютная пара
	ModelNo      int                 `json:"model_no"`          // Номер модели
	ForecastType string              `json:"forecast_type"`     // Горизонт прогноза
	Status       ForecastEventStatus `json:"status"`            // completed / failed
	Rate         float64             `json:"rate,omitempty"`    // Прогноз
	RMSE         float64             `json:"rmse,omitempty"`    // RMSE модели
	Summary      string              `json:"summary,omitempty"` // Описание ошибки
	Timestamp    time.Time           `json:"timestamp"`         // Время события
}

// Key ключ партиционирования: все события одной истории в одной партиции
func (e ForecastEvent) Key() string {
	return e.RateID.String()
}
