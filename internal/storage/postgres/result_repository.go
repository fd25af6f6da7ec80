package postgres

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"bin-option/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResultRepository forecast_results и forecast_errors
type ResultRepository interface {
	GetResult(ctx context.Context, rateID uuid.UUID, modelNo int, forecastType models.ForecastType) (*models.ForecastResult, error)
	CreateResultTx(ctx context.Context, tx pgx.Tx, result *models.ForecastResult) (bool, error)
	DeleteExpiredResultsTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error)

	GetError(ctx context.Context, rateID uuid.UUID, modelNo int) (*models.ForecastError, error)
	CreateErrorTx(ctx context.Context, tx pgx.Tx, forecastErr *models.ForecastError) (bool, error)
	DeleteExpiredErrorsTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error)
}

type PgResultRepository struct {
	db DBTX
}

func NewResultRepository(db DBTX) ResultRepository {
	return &PgResultRepository{db: db}
}

func (r *PgResultRepository) GetResult(ctx context.Context, rateID uuid.UUID, modelNo int, forecastType models.ForecastType) (*models.ForecastResult, error) {
	const op = "storage.GetResult"

	var (
		result models.ForecastResult
		ftype  int16
	)
	err := r.db.QueryRow(ctx, storage.GetForecastResultQuery, rateID, modelNo, int16(forecastType)).Scan(
		&result.ID,
		&result.RateID,
		&result.ModelNo,
		&ftype,
		&result.Result,
		&result.RMSE,
		&result.Memo,
		&result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.ForecastType = models.ForecastType(ftype)
	return &result, nil
}

// CreateResultTx возвращает false, если результат уже был записан
func (r *PgResultRepository) CreateResultTx(ctx context.Context, tx pgx.Tx, result *models.ForecastResult) (bool, error) {
	const op = "storage.CreateResultTx"

	res, err := tx.Exec(ctx, storage.CreateForecastResultQuery,
		result.RateID,
		result.ModelNo,
		int16(result.ForecastType),
		result.Result,
		result.RMSE,
		result.Memo,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, custom_err.ErrHistoryNotFound
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *PgResultRepository) DeleteExpiredResultsTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredResultsTx"

	res, err := tx.Exec(ctx, storage.DeleteExpiredForecastResultsQuery, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected(), nil
}

func (r *PgResultRepository) GetError(ctx context.Context, rateID uuid.UUID, modelNo int) (*models.ForecastError, error) {
	const op = "storage.GetError"

	var forecastErr models.ForecastError
	err := r.db.QueryRow(ctx, storage.GetForecastErrorQuery, rateID, modelNo).Scan(
		&forecastErr.ID,
		&forecastErr.RateID,
		&forecastErr.ModelNo,
		&forecastErr.Summary,
		&forecastErr.Detail,
		&forecastErr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &forecastErr, nil
}

func (r *PgResultRepository) CreateErrorTx(ctx context.Context, tx pgx.Tx, forecastErr *models.ForecastError) (bool, error) {
	const op = "storage.CreateErrorTx"

	res, err := tx.Exec(ctx, storage.CreateForecastErrorQuery,
		forecastErr.RateID,
		forecastErr.ModelNo,
		forecastErr.Summary,
		forecastErr.Detail,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, custom_err.ErrHistoryNotFound
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *PgResultRepository) DeleteExpiredErrorsTx(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredErrorsTx"

	res, err := tx.Exec(ctx, storage.DeleteExpiredForecastErrorsQuery, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected(), nil
}
