package service

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"bin-option/internal/storage/postgres"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Histories interface {
	CreateHistory(ctx context.Context, req models.HistoryRequest) (*models.HistoryResponse, error)
}

type HistoryService struct {
	repo      postgres.HistoryRepository
	txManager TxManager
	expire    time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewHistoryService(repo postgres.HistoryRepository, txManager TxManager, expireHours int, log *slog.Logger) *HistoryService {
	return &HistoryService{
		repo:      repo,
		txManager: txManager,
		expire:    time.Duration(expireHours) * time.Hour,
		now:       time.Now,
		log:       log,
	}
}

func (s *HistoryService) CreateHistory(ctx context.Context, req models.HistoryRequest) (*models.HistoryResponse, error) {
	const op = "service.CreateHistory"

	if !req.Pair.IsValid() {
		return nil, custom_err.ErrUnsupportedPair
	}
	if len(req.RateHistories) == 0 {
		return nil, custom_err.ErrEmptyHistories
	}
	for i, v := range req.RateHistories {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: rate_histories[%d] is not a finite number", custom_err.ErrInvalidInput, i)
		}
	}

	history := &models.RateHistory{
		ID:        uuid.New(),
		Pair:      req.Pair,
		Histories: req.RateHistories,
		Expire:    s.now().UTC().Add(s.expire).Truncate(time.Second),
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		return s.repo.CreateTx(ctx, tx, history)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	s.log.Info("история курсов сохранена",
		slog.String("op", op),
		slog.String("rate_id", history.ID.String()),
		slog.Int("size", len(history.Histories)),
		slog.Time("expire", history.Expire))

	return &models.HistoryResponse{
		RateID: history.ID.String(),
		Expire: history.Expire.Format(models.TimeLayout),
	}, nil
}
