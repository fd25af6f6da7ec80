package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bin-option/internal/custom_err"
	"bin-option/internal/models"
)

func setupRateService() (*RateService, *MockRateRepo, *MockTxManager, *MockRecorder) {
	repo := new(MockRateRepo)
	txManager := new(MockTxManager)
	recorder := new(MockRecorder)

	service := NewRateService(repo, txManager, recorder, testLogger())

	return service, repo, txManager, recorder
}

func rateAt(minute int, value float64) models.Rate {
	return models.Rate{
		Time:  models.RateTime{Time: fixedNow.Add(time.Duration(minute) * time.Minute)},
		Value: value,
	}
}

func TestRateService_StoreRates_Success(t *testing.T) {
	service, repo, txManager, recorder := setupRateService()
	ctx := context.Background()
	rates := []models.Rate{rateAt(0, 110.1), rateAt(1, 110.2)}

	txManager.On("WithTx", ctx, mock.Anything).Return(nil)
	repo.On("UpsertRatesTx", ctx, mock.Anything, models.PairUSDJPY, rates).Return(int64(2), nil)
	recorder.On("RecordRatesStored", "USDJPY", 2).Return()

	count, err := service.StoreRates(ctx, models.PairUSDJPY, rates)

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	repo.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestRateService_StoreRates_CountIsArrayLengthOnUpsert(t *testing.T) {
	service, repo, txManager, recorder := setupRateService()
	ctx := context.Background()
	rates := []models.Rate{rateAt(0, 110.1), rateAt(1, 110.2), rateAt(2, 110.3)}

	txManager.On("WithTx", ctx, mock.Anything).Return(nil)
	// две котировки уже были в базе и обновились
	repo.On("UpsertRatesTx", ctx, mock.Anything, models.PairUSDJPY, rates).Return(int64(3), nil)
	recorder.On("RecordRatesStored", "USDJPY", 3).Return()

	count, err := service.StoreRates(ctx, models.PairUSDJPY, rates)

	assert.NoError(t, err)
	assert.Equal(t, len(rates), count)
}

func TestRateService_StoreRates_Validation(t *testing.T) {
	tests := []struct {
		name    string
		pair    models.Pair
		rates   []models.Rate
		wantErr error
	}{
		{"unsupported pair", models.Pair("EURUSD"), []models.Rate{rateAt(0, 1.1)}, custom_err.ErrUnsupportedPair},
		{"empty array", models.PairUSDJPY, nil, custom_err.ErrInvalidInput},
		{"duplicate time", models.PairUSDJPY, []models.Rate{rateAt(0, 110.1), rateAt(0, 110.2)}, custom_err.ErrDuplicateTime},
		{"nan value", models.PairUSDJPY, []models.Rate{rateAt(0, math.NaN())}, custom_err.ErrInvalidInput},
		{"inf value", models.PairUSDJPY, []models.Rate{rateAt(0, math.Inf(1))}, custom_err.ErrInvalidInput},
		{"zero time", models.PairUSDJPY, []models.Rate{{Value: 110}}, custom_err.ErrInvalidTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, txManager, _ := setupRateService()

			count, err := service.StoreRates(context.Background(), tt.pair, tt.rates)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, count)
			txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "UpsertRatesTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRateService_StoreRates_PersistenceError(t *testing.T) {
	service, repo, txManager, recorder := setupRateService()
	ctx := context.Background()
	rates := []models.Rate{rateAt(0, 110.1)}

	txManager.On("WithTx", ctx, mock.Anything).Return(nil)
	repo.On("UpsertRatesTx", ctx, mock.Anything, models.PairUSDJPY, rates).Return(int64(0), errors.New("connection reset"))

	count, err := service.StoreRates(ctx, models.PairUSDJPY, rates)

	assert.ErrorIs(t, err, custom_err.ErrPersistence)
	assert.Zero(t, count)
	recorder.AssertNotCalled(t, "RecordRatesStored", mock.Anything, mock.Anything)
}
