package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"bin-option/internal/models"
)

type MockRateRepo struct {
	mock.Mock
}

func (m *MockRateRepo) UpsertRatesTx(ctx context.Context, tx pgx.Tx, pair models.Pair, rates []models.Rate) (int64, error) {
	args := m.Called(ctx, tx, pair, rates)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRateRepo) GetRatesInRange(ctx context.Context, pair models.Pair, from, to time.Time) ([]models.RateForTraining, error) {
	args := m.Called(ctx, pair, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RateForTraining), args.Error(1)
}

func (m *MockRateRepo) DeleteOldRatesTx(ctx context.Context, tx pgx.Tx, border time.Time) (int64, error) {
	args := m.Called(ctx, tx, border)
	return args.Get(0).(int64), args.Error(1)
}

type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) CreateTx(ctx context.Context, tx pgx.Tx, history *models.RateHistory) error {
	args := m.Called(ctx, tx, history)
	return args.Error(0)
}

func (m *MockHistoryRepo) GetActive(ctx context.Context, id uuid.UUID, now time.Time) (*models.RateHistory, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateHistory), args.Error(1)
}

func (m *MockHistoryRepo) ListUnforecasted(ctx context.Context, pair models.Pair, forecastType models.ForecastType, now time.Time, limit int) ([]*models.RateHistory, error) {
	args := m.Called(ctx, pair, forecastType, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RateHistory), args.Error(1)
}

func (m *MockHistoryRepo) DeleteExpiredTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	args := m.Called(ctx, tx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockModelRepo struct {
	mock.Mock
}

func (m *MockModelRepo) Get(ctx context.Context, pair models.Pair, modelNo int) (*models.ForecastModelRecord, error) {
	args := m.Called(ctx, pair, modelNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastModelRecord), args.Error(1)
}

func (m *MockModelRepo) List(ctx context.Context, pair models.Pair) ([]*models.ForecastModelRecord, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ForecastModelRecord), args.Error(1)
}

func (m *MockModelRepo) UpsertTx(ctx context.Context, tx pgx.Tx, record *models.ForecastModelRecord) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) GetResult(ctx context.Context, rateID uuid.UUID, modelNo int, forecastType models.ForecastType) (*models.ForecastResult, error) {
	args := m.Called(ctx, rateID, modelNo, forecastType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastResult), args.Error(1)
}

func (m *MockResultRepo) CreateResultTx(ctx context.Context, tx pgx.Tx, result *models.ForecastResult) (bool, error) {
	args := m.Called(ctx, tx, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockResultRepo) DeleteExpiredResultsTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	args := m.Called(ctx, tx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResultRepo) GetError(ctx context.Context, rateID uuid.UUID, modelNo int) (*models.ForecastError, error) {
	args := m.Called(ctx, rateID, modelNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastError), args.Error(1)
}

func (m *MockResultRepo) CreateErrorTx(ctx context.Context, tx pgx.Tx, forecastErr *models.ForecastError) (bool, error) {
	args := m.Called(ctx, tx, forecastErr)
	return args.Bool(0), args.Error(1)
}

func (m *MockResultRepo) DeleteExpiredErrorsTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	args := m.Called(ctx, tx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockDatasetRepo struct {
	mock.Mock
}

func (m *MockDatasetRepo) ReplaceTx(ctx context.Context, tx pgx.Tx, pair models.Pair, samples []models.TrainingSample, memo string) (int64, error) {
	args := m.Called(ctx, tx, pair, samples, memo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDatasetRepo) DeleteOldTx(ctx context.Context, tx pgx.Tx, border time.Time) (int64, error) {
	args := m.Called(ctx, tx, border)
	return args.Get(0).(int64), args.Error(1)
}

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) SendForecastEvent(ctx context.Context, event models.ForecastEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockKafkaProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordForecast(status string) {
	m.Called(status)
}

func (m *MockRecorder) RecordRatesStored(pair string, count int) {
	m.Called(pair, count)
}

func (m *MockRecorder) RecordBatchRun(batch, status string, duration time.Duration) {
	m.Called(batch, status, duration)
}
