package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForecastType горизонт прогноза
type ForecastType int16

const (
	ForecastTypeAfter30Min ForecastType = 1
)

func (t ForecastType) String() string {
	switch t {
	case ForecastTypeAfter30Min:
		return "after30min"
	default:
		return "unknown"
	}
}

// ModelType тип регрессора, сохраненного в forecast_models
type ModelType int16

const (
	ModelTypeLinear ModelType = 1
	ModelTypeRidge  ModelType = 2
	ModelTypeKNN    ModelType = 3
)

func (t ModelType) String() string {
	switch t {
	case ModelTypeLinear:
		return "linear"
	case ModelTypeRidge:
		return "ridge"
	case ModelTypeKNN:
		return "knn"
	default:
		return "unknown"
	}
}

// HistoryRequest тело POST /rates сервера прогнозов
type HistoryRequest struct {
	Pair          Pair      `json:"pair" example:"USDJPY"`
	RateHistories []float64 `json:"rate_histories" example:"110.1,110.2,110.3"`
}

// HistoryResponse ответ POST /rates
type HistoryResponse struct {
	RateID string `json:"rateId" example:"0b4b2f4e-4d4c-4f54-9a7a-5a8f7d8d0c11"`
	Expire string `json:"expire" example:"2022-05-01 12:00:00"`
}

// RateHistory строка таблицы rates_for_forecast
type RateHistory struct {
	ID        uuid.UUID
	Pair      Pair
	Histories []float64
	Expire    time.Time
	Memo      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ForecastModelRecord строка таблицы forecast_models
type ForecastModelRecord struct {
	Pair              Pair
	ModelNo           int
	ModelType         ModelType
	ModelData         json.RawMessage
	InputDataSize     int
	FeatureParams     json.RawMessage
	FeatureParamsHash string
	PerformanceMSE    float64
	PerformanceRMSE   float64
	Memo              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ForecastResult строка таблицы forecast_results
type ForecastResult struct {
	ID           int64
	RateID       uuid.UUID
	ModelNo      int
	ForecastType ForecastType
	Result       decimal.Decimal
	RMSE         float64
	Memo         string
	CreatedAt    time.Time
}

// ForecastError строка таблицы forecast_errors
type ForecastError struct {
	ID        int64
	RateID    uuid.UUID
	ModelNo   int
	Summary   string
	Detail    string
	CreatedAt time.Time
}

// ForecastOutcome ответ GET /forecast/after30min/{rateId}/{modelNo}
type ForecastOutcome struct {
	Complete bool     `json:"complete" example:"true"`
	Rate     *float64 `json:"rate,omitempty" example:"110.42"`
	RMSE     *float64 `json:"rmse,omitempty" example:"0.031"`
}

type ForecastResponse struct {
	Result ForecastOutcome `json:"result"`
}

// PendingOutcome результат еще не посчитан
func PendingOutcome() ForecastOutcome {
	return ForecastOutcome{Complete: false}
}

func CompleteOutcome(r ForecastResult) ForecastOutcome {
	rate := r.Result.InexactFloat64()
	rmse := r.RMSE
	return ForecastOutcome{Complete: true, Rate: &rate, RMSE: &rmse}
}

// TrainingSample одна строка обучающей выборки
type TrainingSample struct {
	Input []float64
	Truth float64
}

// TrainingDataset строка таблицы training_datasets
type TrainingDataset struct {
	ID        int64
	Pair      Pair
	InputData []float64
	Truth     float64
	Memo      string
	CreatedAt time.Time
}
