package service

import (
	"bin-option/internal/storage/postgres"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// CleanReport сколько строк удалил каждый шаг
type CleanReport struct {
	Errors    int64
	Results   int64
	Histories int64
	Rates     int64
	Datasets  int64
}

// CleanService удаляет просроченные истории с их прогнозами и старые котировки
type CleanService struct {
	rateRepo    postgres.RateRepository
	historyRepo postgres.HistoryRepository
	resultRepo  postgres.ResultRepository
	datasetRepo postgres.DatasetRepository
	txManager   TxManager

	expireDays int
	now        func() time.Time
	log        *slog.Logger
}

func NewCleanService(
	rateRepo postgres.RateRepository,
	historyRepo postgres.HistoryRepository,
	resultRepo postgres.ResultRepository,
	datasetRepo postgres.DatasetRepository,
	txManager TxManager,
	expireDays int,
	log *slog.Logger,
) *CleanService {
	return &CleanService{
		rateRepo:    rateRepo,
		historyRepo: historyRepo,
		resultRepo:  resultRepo,
		datasetRepo: datasetRepo,
		txManager:   txManager,
		expireDays:  expireDays,
		now:         time.Now,
		log:         log,
	}
}

// Run все шаги в одной транзакции; зависимые строки удаляются раньше своих историй
func (s *CleanService) Run(ctx context.Context) (*CleanReport, error) {
	const op = "service.Clean.Run"

	now := s.now().UTC()
	border := now.AddDate(0, 0, -s.expireDays)
	report := &CleanReport{}

	steps := []struct {
		name string
		run  func(tx pgx.Tx) (int64, error)
		dst  *int64
	}{
		{"forecast_errors", func(tx pgx.Tx) (int64, error) { return s.resultRepo.DeleteExpiredErrorsTx(ctx, tx, now) }, &report.Errors},
		{"forecast_results", func(tx pgx.Tx) (int64, error) { return s.resultRepo.DeleteExpiredResultsTx(ctx, tx, now) }, &report.Results},
		{"rates_for_forecast", func(tx pgx.Tx) (int64, error) { return s.historyRepo.DeleteExpiredTx(ctx, tx, now) }, &report.Histories},
		{"rates_for_training", func(tx pgx.Tx) (int64, error) { return s.rateRepo.DeleteOldRatesTx(ctx, tx, border) }, &report.Rates},
		{"training_datasets", func(tx pgx.Tx) (int64, error) { return s.datasetRepo.DeleteOldTx(ctx, tx, border) }, &report.Datasets},
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		for _, step := range steps {
			n, err := step.run(tx)
			if err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
			*step.dst = n
			s.log.Info("удалены устаревшие строки",
				slog.String("op", op),
				slog.String("table", step.name),
				slog.Int64("rows", n))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return report, nil
}
