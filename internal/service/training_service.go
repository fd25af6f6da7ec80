package service

import (
	"bin-option/internal/config"
	"bin-option/internal/custom_err"
	"bin-option/internal/forecast"
	"bin-option/internal/models"
	"bin-option/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
)

// TrainingReport итог одного запуска обучения
type TrainingReport struct {
	Samples   int
	Evaluated int
	Saved     bool
	Reason    string
	ModelType models.ModelType
	RMSE      float64
}

const (
	reasonInsufficientData = "insufficient data"
	reasonNoPriorModel     = "no prior model"
	reasonSameParams       = "same feature params"
	reasonPriorUnusable    = "prior model unusable"
	reasonBetterRMSE       = "better rmse"
	reasonWorseRMSE        = "prior model is better"
)

type TrainingService struct {
	rateRepo    postgres.RateRepository
	datasetRepo postgres.DatasetRepository
	modelRepo   postgres.ModelRepository
	txManager   TxManager

	cfg  config.TrainingConfig
	pair models.Pair
	rng  *rand.Rand
	now  func() time.Time
	log  *slog.Logger
}

func NewTrainingService(
	rateRepo postgres.RateRepository,
	datasetRepo postgres.DatasetRepository,
	modelRepo postgres.ModelRepository,
	txManager TxManager,
	cfg config.TrainingConfig,
	log *slog.Logger,
) *TrainingService {
	seed := uint64(time.Now().UnixNano())
	return &TrainingService{
		rateRepo:    rateRepo,
		datasetRepo: datasetRepo,
		modelRepo:   modelRepo,
		txManager:   txManager,
		cfg:         cfg,
		pair:        models.Pair(cfg.Common.CurrencyPair),
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
		now:         time.Now,
		log:         log,
	}
}

func (s *TrainingService) Run(ctx context.Context) (*TrainingReport, error) {
	const op = "service.Training.Run"

	now := s.now().UTC()
	from := now.Add(-time.Duration(s.cfg.RangeHour) * time.Hour)

	rates, err := s.rateRepo.GetRatesInRange(ctx, s.pair, from, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}
	values := make([]float64, len(rates))
	for i, r := range rates {
		values[i] = r.Rate
	}

	samples := forecast.BuildDataset(values, forecast.DatasetConfig{
		InputSize: s.cfg.ForecastInputSize,
		Offset:    s.cfg.ForecastOffsetMinutes,
		Stride:    s.cfg.Stride,
	})
	report := &TrainingReport{Samples: len(samples)}

	if len(samples) < s.cfg.RequiredCount {
		s.log.Warn("недостаточно данных для обучения, запуск пропущен",
			slog.String("op", op),
			slog.Int("rates", len(values)),
			slog.Int("samples", len(samples)),
			slog.Int("required", s.cfg.RequiredCount))
		report.Reason = reasonInsufficientData
		return report, nil
	}

	memo := fmt.Sprintf("%s..%s", from.Format(models.TimeLayout), now.Format(models.TimeLayout))
	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := s.datasetRepo.ReplaceTx(ctx, tx, s.pair, samples, memo)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	train, test := forecast.Split(samples, s.cfg.TestRatio, s.rng)

	priorRecord, prior, err := s.loadPrior(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var seed *forecast.FeatureParams
	if prior != nil {
		seed = &prior.Params
	}

	trainer := forecast.NewTrainer(forecast.TrainerConfig{
		Pair:           s.pair,
		ModelNo:        s.cfg.ModelNo,
		InputSize:      s.cfg.ForecastInputSize,
		TrainingCount:  s.cfg.TrainingCount,
		PopulationSize: s.cfg.PopulationSize,
	}, s.rng, s.log)

	res, err := trainer.Run(ctx, seed, train, test)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.Failures != nil {
		s.log.Debug("часть кандидатов не обучилась",
			slog.String("op", op),
			slog.String("error", res.Failures.Error()))
	}

	best := res.Best
	report.Evaluated = res.Evaluated
	report.ModelType = best.Type()
	report.RMSE = best.RMSE

	save, reason := s.shouldSave(priorRecord, prior, best, test)
	report.Reason = reason
	if !save {
		s.log.Info("текущая модель оставлена",
			slog.String("op", op),
			slog.String("reason", reason),
			slog.Float64("candidate_rmse", best.RMSE))
		return report, nil
	}

	if err := s.saveModel(ctx, best); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	report.Saved = true

	s.log.Info("модель сохранена",
		slog.String("op", op),
		slog.String("reason", reason),
		slog.Int("model_no", best.No),
		slog.String("model_type", best.Type().String()),
		slog.String("params_hash", best.Params.Hash()),
		slog.Float64("rmse", best.RMSE),
		slog.Int("evaluated", res.Evaluated))

	return report, nil
}

// loadPrior запись текущей модели и, если ее можно восстановить, сама модель
func (s *TrainingService) loadPrior(ctx context.Context) (*models.ForecastModelRecord, *forecast.Model, error) {
	record, err := s.modelRepo.Get(ctx, s.pair, s.cfg.ModelNo)
	if err != nil {
		if errors.Is(err, custom_err.ErrModelNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", custom_err.ErrPersistence, err)
	}

	model, err := forecast.FromRecord(record)
	if err != nil {
		s.log.Warn("текущая модель не восстанавливается",
			slog.Int("model_no", s.cfg.ModelNo),
			slog.String("error", err.Error()))
		return record, nil, nil
	}
	if model.InputSize != s.cfg.ForecastInputSize {
		s.log.Warn("размер входа текущей модели отличается от настроек",
			slog.Int("model_input_size", model.InputSize),
			slog.Int("input_size", s.cfg.ForecastInputSize))
		return record, nil, nil
	}
	return record, model, nil
}

func (s *TrainingService) shouldSave(record *models.ForecastModelRecord, prior, best *forecast.Model, test []models.TrainingSample) (bool, string) {
	if record == nil {
		return true, reasonNoPriorModel
	}
	if prior == nil {
		return true, reasonPriorUnusable
	}
	if record.FeatureParamsHash == best.Params.Hash() {
		return false, reasonSameParams
	}
	if err := prior.Evaluate(test); err != nil {
		s.log.Warn("текущая модель не оценивается на новых данных", slog.String("error", err.Error()))
		return true, reasonPriorUnusable
	}
	if best.RMSE < prior.RMSE {
		return true, reasonBetterRMSE
	}
	return false, reasonWorseRMSE
}

func (s *TrainingService) saveModel(ctx context.Context, best *forecast.Model) error {
	record, err := best.ToRecord()
	if err != nil {
		return fmt.Errorf("%w: %v", custom_err.ErrComputation, err)
	}

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.modelRepo.UpsertTx(ctx, tx, record); err != nil {
			return err
		}
		if s.cfg.CopyToModelNo > 0 && s.cfg.CopyToModelNo != record.ModelNo {
			copied := *record
			copied.ModelNo = s.cfg.CopyToModelNo
			if err := s.modelRepo.UpsertTx(ctx, tx, &copied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", custom_err.ErrPersistence, err)
	}
	return nil
}
