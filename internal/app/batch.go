package app

import (
	"bin-option/internal/config"
	"bin-option/internal/db"
	"bin-option/internal/kafka"
	"bin-option/internal/metrics"
	"bin-option/internal/models"
	"bin-option/internal/scheduler"
	"bin-option/internal/service"
	"bin-option/internal/storage/postgres"
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
)

const (
	trainingBatchName  = "training-batch"
	forecastBatchName  = "forecast-batch"
	dataCleanBatchName = "data-clean-batch"
)

// BatchApp процесс, который запускает один батч по расписанию
type BatchApp struct {
	*base
	scheduler     *scheduler.Scheduler
	kafkaProducer kafka.Producer
}

func NewTrainingBatchApp() (*BatchApp, error) {
	cfg, err := config.NewTrainingConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}
	if err := checkPair(cfg.Common.CurrencyPair); err != nil {
		return nil, err
	}

	b, err := newBase(trainingBatchName, cfg.Common)
	if err != nil {
		return nil, err
	}

	training := service.NewTrainingService(
		postgres.NewRateRepository(b.pool),
		postgres.NewDatasetRepository(b.pool),
		postgres.NewModelRepository(b.pool),
		service.NewPgxTxManager(b.pool),
		*cfg,
		b.log,
	)

	job := func(ctx context.Context) error {
		report, err := training.Run(ctx)
		if err != nil {
			return err
		}
		b.log.Info("обучение завершено",
			slog.Int("samples", report.Samples),
			slog.Int("evaluated", report.Evaluated),
			slog.Bool("saved", report.Saved),
			slog.String("reason", report.Reason))
		return nil
	}

	return &BatchApp{
		base:      b,
		scheduler: newScheduler(trainingBatchName, cfg.CronSchedule, job, b),
	}, nil
}

func NewForecastBatchApp() (*BatchApp, error) {
	cfg, err := config.NewForecastBatchConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}
	if err := checkPair(cfg.Common.CurrencyPair); err != nil {
		return nil, err
	}

	b, err := newBase(forecastBatchName, cfg.Common)
	if err != nil {
		return nil, err
	}

	producer, err := newProducer(cfg.Kafka, b.log)
	if err != nil {
		b.close()
		return nil, err
	}

	modelRepo := postgres.NewModelRepository(b.pool)
	forecaster := service.NewForecaster(
		modelRepo,
		postgres.NewResultRepository(b.pool),
		service.NewPgxTxManager(b.pool),
		producer,
		metrics.NewNoOpRecorder(),
		b.log,
	)
	batch := service.NewForecastBatchService(
		postgres.NewHistoryRepository(b.pool),
		modelRepo,
		forecaster,
		models.Pair(cfg.Common.CurrencyPair),
		cfg.Forecast.Timeout,
		b.log,
	)

	job := func(ctx context.Context) error {
		_, err := batch.Run(ctx)
		return err
	}

	return &BatchApp{
		base:          b,
		scheduler:     newScheduler(forecastBatchName, cfg.CronSchedule, job, b),
		kafkaProducer: producer,
	}, nil
}

func NewDataCleanBatchApp() (*BatchApp, error) {
	cfg, err := config.NewDataCleanConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	b, err := newBase(dataCleanBatchName, cfg.Common)
	if err != nil {
		return nil, err
	}

	clean := service.NewCleanService(
		postgres.NewRateRepository(b.pool),
		postgres.NewHistoryRepository(b.pool),
		postgres.NewResultRepository(b.pool),
		postgres.NewDatasetRepository(b.pool),
		service.NewPgxTxManagerWithOptions(b.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}),
		cfg.ExpireDateCount,
		b.log,
	)

	job := func(ctx context.Context) error {
		_, err := clean.Run(ctx)
		return err
	}

	return &BatchApp{
		base:      b,
		scheduler: newScheduler(dataCleanBatchName, cfg.CronSchedule, job, b),
	}, nil
}

// Run до SIGINT/SIGTERM; без расписания выполняет батч один раз и возвращает его ошибку
func (a *BatchApp) Run() error {
	defer a.close()
	defer closeProducer(a.kafkaProducer, a.log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.scheduler.Run(ctx); err != nil {
		return fmt.Errorf("ошибка выполнения батча: %w", err)
	}
	return nil
}

func newScheduler(name, schedule string, job scheduler.Job, b *base) *scheduler.Scheduler {
	return scheduler.New(name, schedule, job, db.NewAdvisoryLocker(b.pool, b.log), metrics.NewNoOpRecorder(), b.log)
}

func checkPair(pair string) error {
	if !models.Pair(pair).IsValid() {
		return fmt.Errorf("CURRENCY_PAIR %q не поддерживается", pair)
	}
	return nil
}
