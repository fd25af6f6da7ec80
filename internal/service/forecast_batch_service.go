package service

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/forecast"
	"bin-option/internal/models"
	"bin-option/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
)

const forecastBatchLimit = 500

// ForecastBatchReport итог одного прохода
type ForecastBatchReport struct {
	Histories int
	Completed int
	Failed    int
	Skipped   int
}

// ForecastBatchService досчитывает прогнозы для всех активных историй по всем моделям пары
type ForecastBatchService struct {
	historyRepo postgres.HistoryRepository
	modelRepo   postgres.ModelRepository
	forecaster  *Forecaster
	pair        models.Pair
	timeout     time.Duration
	now         func() time.Time
	log         *slog.Logger
}

func NewForecastBatchService(
	historyRepo postgres.HistoryRepository,
	modelRepo postgres.ModelRepository,
	forecaster *Forecaster,
	pair models.Pair,
	timeout time.Duration,
	log *slog.Logger,
) *ForecastBatchService {
	return &ForecastBatchService{
		historyRepo: historyRepo,
		modelRepo:   modelRepo,
		forecaster:  forecaster,
		pair:        pair,
		timeout:     timeout,
		now:         time.Now,
		log:         log,
	}
}

// Run ошибки отдельных прогнозов накапливаются и возвращаются вместе, проход не прерывается
func (s *ForecastBatchService) Run(ctx context.Context) (*ForecastBatchReport, error) {
	const op = "service.ForecastBatch.Run"

	records, err := s.modelRepo.List(ctx, s.pair)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	var result *multierror.Error
	loaded := make([]*forecast.Model, 0, len(records))
	for _, rec := range records {
		model, err := forecast.FromRecord(rec)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("model %d: %w", rec.ModelNo, err))
			continue
		}
		loaded = append(loaded, model)
	}

	report := &ForecastBatchReport{}
	if len(loaded) == 0 {
		s.log.Info("нет моделей для прогноза", slog.String("op", op), slog.String("pair", string(s.pair)))
		return report, result.ErrorOrNil()
	}

	histories, err := s.historyRepo.ListUnforecasted(ctx, s.pair, models.ForecastTypeAfter30Min, s.now().UTC(), forecastBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}
	report.Histories = len(histories)

	for _, history := range histories {
		for _, model := range loaded {
			if err := ctx.Err(); err != nil {
				return report, multierror.Append(result, err).ErrorOrNil()
			}

			stored, storedErr, err := s.forecaster.Stored(ctx, history.ID, model.No)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if stored != nil || storedErr != nil {
				report.Skipped++
				continue
			}

			if err := s.runOne(ctx, history, model); err != nil {
				report.Failed++
				if !errors.Is(err, custom_err.ErrForecastFailed) {
					result = multierror.Append(result, fmt.Errorf("rate %s model %d: %w", history.ID, model.No, err))
				}
				continue
			}
			report.Completed++
		}
	}

	s.log.Info("прогнозы досчитаны",
		slog.String("op", op),
		slog.Int("histories", report.Histories),
		slog.Int("completed", report.Completed),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped))

	return report, result.ErrorOrNil()
}

func (s *ForecastBatchService) runOne(ctx context.Context, history *models.RateHistory, model *forecast.Model) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.forecaster.Run(ctx, history, model)
	return err
}
