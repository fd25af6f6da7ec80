package postgres

import (
	"bin-option/internal/models"
	"bin-option/internal/storage"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type RateRepository interface {
	UpsertRatesTx(ctx context.Context, tx pgx.Tx, pair models.Pair, rates []models.Rate) (int64, error)
	GetRatesInRange(ctx context.Context, pair models.Pair, from, to time.Time) ([]models.RateForTraining, error)
	DeleteOldRatesTx(ctx context.Context, tx pgx.Tx, border time.Time) (int64, error)
}

type PgRateRepository struct {
	db DBTX
}

func NewRateRepository(db DBTX) RateRepository {
	return &PgRateRepository{db: db}
}

func (r *PgRateRepository) UpsertRatesTx(ctx context.Context, tx pgx.Tx, pair models.Pair, rates []models.Rate) (int64, error) {
	const op = "storage.UpsertRatesTx"

	times := make([]time.Time, len(rates))
	values := make([]float64, len(rates))
	for i, rate := range rates {
		times[i] = rate.Time.UTC()
		values[i] = rate.Value
	}

	res, err := tx.Exec(ctx, storage.UpsertRatesQuery, string(pair), times, values)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected(), nil
}

func (r *PgRateRepository) GetRatesInRange(ctx context.Context, pair models.Pair, from, to time.Time) ([]models.RateForTraining, error) {
	const op = "storage.GetRatesInRange"

	rows, err := r.db.Query(ctx, storage.GetRatesInRangeQuery, string(pair), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var rates []models.RateForTraining
	for rows.Next() {
		var rate models.RateForTraining
		err := rows.Scan(
			&rate.Pair,
			&rate.RecordedAt,
			&rate.Rate,
			&rate.CreatedAt,
			&rate.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rates, nil
}

func (r *PgRateRepository) DeleteOldRatesTx(ctx context.Context, tx pgx.Tx, border time.Time) (int64, error) {
	const op = "storage.DeleteOldRatesTx"

	res, err := tx.Exec(ctx, storage.DeleteOldRatesQuery, border.UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected(), nil
}
