package service

import (
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bin-option/internal/forecast"
	"bin-option/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixedClock() time.Time { return fixedNow }

func waveValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 150 + math.Sin(float64(i)/5) + 0.01*float64(i)
	}
	return values
}

func waveRates(n int) []models.RateForTraining {
	values := waveValues(n)
	rates := make([]models.RateForTraining, n)
	for i, v := range values {
		rates[i] = models.RateForTraining{
			Pair:       models.PairUSDJPY,
			RecordedAt: fixedNow.Add(time.Duration(i-n) * time.Minute),
			Rate:       v,
		}
	}
	return rates
}

var testFeatureParams = forecast.FeatureParams{
	FeatureSize:  3,
	FastPeriod:   2,
	SlowPeriod:   4,
	SignalPeriod: 2,
	BBPeriod:     5,
}

// testModel ridge/linear/knn модель на синусоиде, вход 20 курсов
func testModel(t *testing.T, modelNo int) *forecast.Model {
	t.Helper()
	samples := forecast.BuildDataset(waveValues(200), forecast.DatasetConfig{InputSize: 20, Offset: 3, Stride: 1})
	trainer := forecast.NewTrainer(forecast.TrainerConfig{
		Pair:           models.PairUSDJPY,
		ModelNo:        modelNo,
		InputSize:      20,
		TrainingCount:  1,
		PopulationSize: 1,
	}, rand.New(rand.NewPCG(1, 2)), testLogger())

	trained, _ := trainer.TrainParams(testFeatureParams, samples, samples)
	require.NotEmpty(t, trained)
	return trained[0]
}

func testRecord(t *testing.T, modelNo int) *models.ForecastModelRecord {
	t.Helper()
	rec, err := testModel(t, modelNo).ToRecord()
	require.NoError(t, err)
	return rec
}

func testHistory(size int) *models.RateHistory {
	return &models.RateHistory{
		ID:        uuid.New(),
		Pair:      models.PairUSDJPY,
		Histories: waveValues(size),
		Expire:    fixedNow.Add(12 * time.Hour),
	}
}
