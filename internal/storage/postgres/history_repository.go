package postgres

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"bin-option/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type HistoryRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, history *models.RateHistory) error
	GetActive(ctx context.Context, id uuid.UUID, now time.Time) (*models.RateHistory, error)
	ListUnforecasted(ctx context.Context, pair models.Pair, forecastType models.ForecastType, now time.Time, limit int) ([]*models.RateHistory, error)
	DeleteExpiredTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error)
}

type PgHistoryRepository struct {
	db DBTX
}

func NewHistoryRepository(db DBTX) HistoryRepository {
	return &PgHistoryRepository{db: db}
}

func (r *PgHistoryRepository) CreateTx(ctx context.Context, tx pgx.Tx, history *models.RateHistory) error {
	const op = "storage.CreateHistoryTx"

	histories, err := json.Marshal(history.Histories)
	if err != nil {
		return fmt.Errorf("%s: marshal histories: %w", op, err)
	}

	_, err = tx.Exec(ctx, storage.CreateRateHistoryQuery,
		history.ID, string(history.Pair), histories, history.Expire.UTC(), history.Memo)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgHistoryRepository) GetActive(ctx context.Context, id uuid.UUID, now time.Time) (*models.RateHistory, error) {
	const op = "storage.GetActiveHistory"

	history, err := scanHistory(r.db.QueryRow(ctx, storage.GetActiveRateHistoryQuery, id, now.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return history, nil
}

func (r *PgHistoryRepository) ListUnforecasted(ctx context.Context, pair models.Pair, forecastType models.ForecastType, now time.Time, limit int) ([]*models.RateHistory, error) {
	const op = "storage.ListUnforecasted"

	rows, err := r.db.Query(ctx, storage.ListUnforecastedHistoriesQuery, string(pair), now.UTC(), int16(forecastType), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var histories []*models.RateHistory
	for rows.Next() {
		history, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		histories = append(histories, history)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return histories, nil
}

func (r *PgHistoryRepository) DeleteExpiredTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredHistoriesTx"

	res, err := tx.Exec(ctx, storage.DeleteExpiredHistoriesQuery, now.UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%s: dependent rows still exist: %w", op, err)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected(), nil
}

func scanHistory(row pgx.Row) (*models.RateHistory, error) {
	var (
		history models.RateHistory
		raw     []byte
	)
	err := row.Scan(
		&history.ID,
		&history.Pair,
		&raw,
		&history.Expire,
		&history.Memo,
		&history.CreatedAt,
		&history.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &history.Histories); err != nil {
		return nil, fmt.Errorf("decode histories of %s: %w", history.ID, err)
	}
	return &history, nil
}
