package service

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/forecast"
	"bin-option/internal/kafka"
	"bin-option/internal/metrics"
	"bin-option/internal/models"
	"bin-option/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	resultScale      = 4
	eventSendTimeout = 5 * time.Second
)

// Forecaster общий для сервера прогнозов и батча расчет прогноза с записью результата или ошибки
type Forecaster struct {
	modelRepo  postgres.ModelRepository
	resultRepo postgres.ResultRepository
	txManager  TxManager
	producer   kafka.Producer
	metrics    metrics.Recorder
	now        func() time.Time
	log        *slog.Logger
}

func NewForecaster(
	modelRepo postgres.ModelRepository,
	resultRepo postgres.ResultRepository,
	txManager TxManager,
	producer kafka.Producer,
	recorder metrics.Recorder,
	log *slog.Logger,
) *Forecaster {
	return &Forecaster{
		modelRepo:  modelRepo,
		resultRepo: resultRepo,
		txManager:  txManager,
		producer:   producer,
		metrics:    recorder,
		now:        time.Now,
		log:        log,
	}
}

// LoadModel модель с неверным хешем параметров считается отсутствующей
func (f *Forecaster) LoadModel(ctx context.Context, pair models.Pair, modelNo int) (*forecast.Model, error) {
	const op = "service.LoadModel"

	record, err := f.modelRepo.Get(ctx, pair, modelNo)
	if err != nil {
		if errors.Is(err, custom_err.ErrModelNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	model, err := forecast.FromRecord(record)
	if err != nil {
		f.log.Warn("модель не может быть загружена",
			slog.String("op", op),
			slog.String("pair", string(pair)),
			slog.Int("model_no", modelNo),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", custom_err.ErrModelNotFound, err)
	}
	return model, nil
}

// Stored уже записанный результат или ошибка прогноза. Оба nil - прогноза еще нет.
func (f *Forecaster) Stored(ctx context.Context, rateID uuid.UUID, modelNo int) (*models.ForecastResult, *models.ForecastError, error) {
	const op = "service.Stored"

	result, err := f.resultRepo.GetResult(ctx, rateID, modelNo, models.ForecastTypeAfter30Min)
	switch {
	case err == nil:
		return result, nil, nil
	case !errors.Is(err, custom_err.ErrNotFound):
		return nil, nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	forecastErr, err := f.resultRepo.GetError(ctx, rateID, modelNo)
	switch {
	case err == nil:
		return nil, forecastErr, nil
	case !errors.Is(err, custom_err.ErrNotFound):
		return nil, nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}
	return nil, nil, nil
}

// Run считает прогноз и сохраняет результат. Ошибка расчета сохраняется в forecast_errors
// и возвращается как *custom_err.FailureError.
func (f *Forecaster) Run(ctx context.Context, history *models.RateHistory, model *forecast.Model) (*models.ForecastResult, error) {
	const op = "service.Forecaster.Run"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	predicted, err := safePredict(model, history.Histories)
	if err != nil {
		return nil, f.fail(ctx, history, model, err)
	}

	result := &models.ForecastResult{
		RateID:       history.ID,
		ModelNo:      model.No,
		ForecastType: models.ForecastTypeAfter30Min,
		Result:       decimal.NewFromFloat(predicted).Round(resultScale),
		RMSE:         model.RMSE,
		Memo:         model.Type().String(),
	}

	var inserted bool
	err = f.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		ok, err := f.resultRepo.CreateResultTx(ctx, tx, result)
		if err != nil {
			return err
		}
		inserted = ok
		return nil
	})
	if err != nil {
		if errors.Is(err, custom_err.ErrHistoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	if !inserted {
		// параллельный расчет успел раньше, отдаем его результат
		stored, err := f.resultRepo.GetResult(ctx, history.ID, model.No, models.ForecastTypeAfter30Min)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
		}
		return stored, nil
	}

	f.metrics.RecordForecast(metrics.StatusSuccess)
	f.log.Info("прогноз рассчитан",
		slog.String("op", op),
		slog.String("rate_id", history.ID.String()),
		slog.Int("model_no", model.No),
		slog.String("result", result.Result.StringFixed(resultScale)))

	f.publish(history, model.No, models.ForecastEvent{
		Status: models.ForecastEventCompleted,
		Rate:   result.Result.InexactFloat64(),
		RMSE:   result.RMSE,
	})
	return result, nil
}

func (f *Forecaster) fail(ctx context.Context, history *models.RateHistory, model *forecast.Model, cause error) error {
	const op = "service.Forecaster.fail"

	forecastErr := &models.ForecastError{
		RateID:  history.ID,
		ModelNo: model.No,
		Summary: failureSummary(cause),
		Detail:  cause.Error(),
	}

	err := f.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := f.resultRepo.CreateErrorTx(ctx, tx, forecastErr)
		return err
	})
	if err != nil {
		if errors.Is(err, custom_err.ErrHistoryNotFound) {
			return err
		}
		f.log.Error("не удалось сохранить ошибку прогноза",
			slog.String("op", op),
			slog.String("rate_id", history.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	f.metrics.RecordForecast(metrics.StatusFailed)
	f.log.Warn("прогноз завершился ошибкой",
		slog.String("op", op),
		slog.String("rate_id", history.ID.String()),
		slog.Int("model_no", model.No),
		slog.String("error", cause.Error()))

	f.publish(history, model.No, models.ForecastEvent{
		Status:  models.ForecastEventFailed,
		Summary: forecastErr.Summary,
	})
	return &custom_err.FailureError{Summary: forecastErr.Summary}
}

// safePredict паника регрессора (битые данные модели) записывается как ошибка расчета
func safePredict(model *forecast.Model, history []float64) (predicted float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", custom_err.ErrComputation, r)
		}
	}()
	return model.Predict(history)
}

func failureSummary(err error) string {
	switch {
	case errors.Is(err, custom_err.ErrInputSizeMismatch):
		return "rate history is shorter than the model input size"
	case errors.Is(err, custom_err.ErrComputation):
		return "forecast computation failed"
	default:
		return "forecast failed"
	}
}

// publish отправка события не влияет на результат прогноза
func (f *Forecaster) publish(history *models.RateHistory, modelNo int, event models.ForecastEvent) {
	event.RateID = history.ID
	event.Pair = history.Pair
	event.ModelNo = modelNo
	event.ForecastType = models.ForecastTypeAfter30Min.String()
	event.Timestamp = f.now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), eventSendTimeout)
	defer cancel()

	if err := f.producer.SendForecastEvent(ctx, event); err != nil {
		f.log.Error("kafka send failed",
			slog.String("rate_id", history.ID.String()),
			slog.String("error", err.Error()))
	}
}
