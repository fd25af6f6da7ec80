package service

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/metrics"
	"bin-option/internal/models"
	"bin-option/internal/storage/postgres"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
)

type Rates interface {
	StoreRates(ctx context.Context, pair models.Pair, rates []models.Rate) (int, error)
}

type RateService struct {
	repo      postgres.RateRepository
	txManager TxManager
	metrics   metrics.Recorder
	log       *slog.Logger
}

func NewRateService(repo postgres.RateRepository, txManager TxManager, recorder metrics.Recorder, log *slog.Logger) *RateService {
	return &RateService{
		repo:      repo,
		txManager: txManager,
		metrics:   recorder,
		log:       log,
	}
}

// StoreRates пишет все котировки одной транзакцией; повторная котировка на то же время перезаписывает значение
func (s *RateService) StoreRates(ctx context.Context, pair models.Pair, rates []models.Rate) (int, error) {
	const op = "service.StoreRates"

	if !pair.IsValid() {
		return 0, custom_err.ErrUnsupportedPair
	}
	if err := validateRates(rates); err != nil {
		return 0, err
	}

	var affected int64
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := s.repo.UpsertRatesTx(ctx, tx, pair, rates)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	s.metrics.RecordRatesStored(string(pair), len(rates))
	s.log.Info("котировки сохранены",
		slog.String("op", op),
		slog.String("pair", string(pair)),
		slog.Int("count", len(rates)),
		slog.Int64("rows_affected", affected))

	return len(rates), nil
}

func validateRates(rates []models.Rate) error {
	if len(rates) == 0 {
		return fmt.Errorf("%w: rates must not be empty", custom_err.ErrInvalidInput)
	}

	seen := make(map[time.Time]struct{}, len(rates))
	for i, r := range rates {
		if r.Time.IsZero() {
			return fmt.Errorf("%w: rate %d has no time", custom_err.ErrInvalidTime, i)
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return fmt.Errorf("%w: rate %d is not a finite number", custom_err.ErrInvalidInput, i)
		}
		if _, ok := seen[r.Time.Time]; ok {
			return fmt.Errorf("%w: %s", custom_err.ErrDuplicateTime, r.Time.Format(models.TimeLayout))
		}
		seen[r.Time.Time] = struct{}{}
	}
	return nil
}
